package main

import (
	"context"
	stdsql "database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql"
	"github.com/syssam/treesql/dialect/sql/cte"
	"github.com/syssam/treesql/dialect/sql/ddl"
	"github.com/syssam/treesql/dialect/sql/schema"
	"github.com/syssam/treesql/extract"
)

// conn holds the connection flags shared by the database commands.
type conn struct {
	dsn, driver, dialect string
	slow                 time.Duration
}

func (c *conn) register(fs *flag.FlagSet) {
	fs.StringVar(&c.dsn, "dsn", "", "data source name")
	fs.StringVar(&c.driver, "driver", "", "database/sql driver name (default: derived from the dialect)")
	fs.StringVar(&c.dialect, "dialect", "", "dialect of the database (default: derived from -dsn)")
	fs.DurationVar(&c.slow, "slow", 100*time.Millisecond, "log queries slower than this")
}

// target returns the dialect of the database.
func (c *conn) target() (dialect.Dialect, error) {
	if c.dialect != "" {
		return dialect.Parse(c.dialect)
	}
	if d, ok := dialect.FromDSN(c.dsn); ok {
		return d, nil
	}
	return "", fmt.Errorf("cannot derive the dialect of %q, set -dialect", c.dsn)
}

// open connects to the database. The returned driver records query
// statistics and logs slow queries. In verbose mode it also logs every
// statement.
func (c *conn) open(logger *slog.Logger, verbose bool) (*sql.StatsDriver, dialect.Dialect, error) {
	if c.dsn == "" {
		return nil, "", errors.New("-dsn is required")
	}
	d, err := c.target()
	if err != nil {
		return nil, "", err
	}
	name := c.driver
	if name == "" {
		name = d.DriverName()
	}
	if name == "" {
		return nil, "", fmt.Errorf("no Go driver for dialect %s, set -driver", d)
	}
	db, err := stdsql.Open(name, c.dsn)
	if err != nil {
		return nil, "", err
	}
	opts := []sql.StatsOption{
		sql.WithSlowThreshold(c.slow),
		sql.WithSlowQueryLog(logger),
	}
	if verbose {
		opts = append(opts, sql.WithStatementLog(logger))
	}
	return sql.NewStatsDriver(sql.OpenDB(d, db), opts...), d, nil
}

func closeDriver(drv *sql.StatsDriver, logger *slog.Logger) {
	logger.Debug("database: closed", "stats", drv.QueryStats().Stats().String())
	if err := drv.Close(); err != nil {
		logger.Warn("database: close", "error", err)
	}
}

func runInspect(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("inspect", stderr)
	var (
		c       conn
		targets = fs.String("target", "", "comma-separated dialects to render (default: the database dialect)")
		only    listFlag
	)
	c.register(fs.FlagSet)
	fs.Var(&only, "table", "table to inspect, repeatable (default: all tables)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := fs.logger(stderr)
	drv, d, err := c.open(logger, fs.verbose)
	if err != nil {
		return err
	}
	defer closeDriver(drv, logger)
	current, err := extract.Load(ctx, extract.NewAtlas(drv.DB(), d, extract.OnlyTables(only...), extract.WithLogger(logger)))
	if err != nil {
		return err
	}
	ds := []dialect.Dialect{d}
	if *targets != "" {
		if ds, err = parseDialects(*targets); err != nil {
			return err
		}
	}
	scripts, err := render(ctx, ds, []ddl.Option{ddl.WithLogger(logger), ddl.WithFallback()}, func(g *ddl.Generator) ([]string, error) {
		return g.Create(current)
	})
	if err != nil {
		return err
	}
	w := &scriptWriter{stdout: stdout, logger: logger, many: len(ds) > 1}
	return w.write(ds, scripts)
}

func runMigrate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("migrate", stderr)
	var (
		c         conn
		path      = fs.String("schema", "", "desired schema file (YAML)")
		allowDrop = fs.Bool("allow-drop", false, "allow dropping tables and columns")
		apply     = fs.Bool("apply", false, "execute the statements instead of printing them")
	)
	c.register(fs.FlagSet)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "schema"); err != nil {
		return err
	}
	logger := fs.logger(stderr)
	desired, err := extract.Load(ctx, extract.YAMLFile(*path))
	if err != nil {
		return err
	}
	drv, d, err := c.open(logger, fs.verbose)
	if err != nil {
		return err
	}
	defer closeDriver(drv, logger)
	names := desired.Names()
	current, err := extract.Load(ctx, extract.NewAtlas(drv.DB(), d, extract.WithLogger(logger)))
	if err != nil {
		return err
	}
	if !*allowDrop {
		// Tables outside the schema file are left alone.
		current, err = keep(current, names)
		if err != nil {
			return err
		}
	}
	opts := []ddl.Option{ddl.WithLogger(logger), ddl.WithFallback()}
	if *allowDrop {
		opts = append(opts, ddl.AllowDropTable(), ddl.AllowDropColumn())
	}
	gen, err := ddl.NewGenerator(d, opts...)
	if err != nil {
		return err
	}
	stmts, err := gen.Migrate(current, desired)
	if err != nil {
		return err
	}
	if !*apply {
		fmt.Fprint(stdout, ddl.Script(stmts))
		return nil
	}
	if !transactionalDDL(d) {
		return gen.Apply(ctx, drv, stmts)
	}
	tx, err := drv.Tx(ctx)
	if err != nil {
		return err
	}
	if err := gen.Apply(ctx, tx, stmts); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			logger.Warn("migrate: rollback", "error", rerr)
		}
		return err
	}
	return tx.Commit()
}

// transactionalDDL reports whether the dialect can roll back DDL. MySQL
// and Oracle commit every DDL statement implicitly.
func transactionalDDL(d dialect.Dialect) bool {
	switch d.Family() {
	case dialect.Postgres, dialect.SQLServer, dialect.SQLite:
		return true
	default:
		return false
	}
}

// keep returns the context of the tables of c named in names. References
// into dropped tables are removed with them.
func keep(c *schema.Context, names []string) (*schema.Context, error) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	var tables []*schema.Table
	for _, t := range c.Tables() {
		if !set[t.Name] {
			continue
		}
		kept := *t
		kept.ForeignKeys = nil
		for _, fk := range t.ForeignKeys {
			if set[fk.RefTable] {
				kept.ForeignKeys = append(kept.ForeignKeys, fk)
			}
		}
		tables = append(tables, &kept)
	}
	return schema.NewContext(tables...)
}

func runTree(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("tree", stderr)
	var (
		c          conn
		req        cte.Request
		down       = fs.Bool("down", false, "also return the descendants of the anchor rows")
		anchor     = fs.String("anchor", "", "predicate selecting the start rows, with #{name} placeholders")
		filter     = fs.String("filter", "", "predicate applied to the result rows")
		printOnly  = fs.Bool("print", false, "print the query instead of running it (requires -dialect)")
		params     listFlag
		label      = fs.String("label", "", "breadcrumb column (default: the id column)")
		breadcrumb = fs.Bool("breadcrumb", false, "add the tree_breadcrumb column")
	)
	c.register(fs.FlagSet)
	fs.StringVar(&req.Table, "table", "", "table name")
	fs.StringVar(&req.ID, "id", "id", "primary key column")
	fs.StringVar(&req.ParentID, "pid", "parent_id", "parent reference column")
	fs.IntVar(&req.MaxDepth, "max-depth", 0, "bound the walk depth (0: unbounded)")
	fs.Var(&params, "param", "placeholder value as name=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "table"); err != nil {
		return err
	}
	values, err := parseParams(params)
	if err != nil {
		return err
	}
	if *down {
		req.Direction = cte.UpAndDown
	}
	req.Breadcrumb = *breadcrumb || *label != ""
	req.BreadcrumbColumn = *label
	req.Anchor = cte.WrapperContext{Segment: *anchor, Params: values}
	req.Filter = cte.WrapperContext{Segment: *filter, Params: values}

	logger := fs.logger(stderr)
	engine := cte.NewEngine(cte.WithLogger(logger), cte.WithFallback())
	if *printOnly {
		d, err := c.target()
		if err != nil {
			return err
		}
		query, err := engine.Build(req, d)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, query)
		return nil
	}
	drv, d, err := c.open(logger, fs.verbose)
	if err != nil {
		return err
	}
	defer closeDriver(drv, logger)
	rows, err := engine.Run(ctx, req, d, drv)
	if err != nil {
		return err
	}
	return printRows(stdout, rows)
}

// parseParams parses name=value pairs. Integer and decimal values are
// passed as numbers, everything else as strings.
func parseParams(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, want name=value", p)
		}
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			values[name] = i
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			values[name] = f
		} else {
			values[name] = value
		}
	}
	return values, nil
}

func printRows(w io.Writer, rows []sql.Row) error {
	if len(rows) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rows[0].Columns, "\t"))
	for _, r := range rows {
		cells := make([]string, len(r.Values))
		for i, v := range r.Values {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

package ddl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// Execer executes a statement. *sql.Driver, *sql.Tx and sql.Conn
// implement it.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Option configures a Generator.
type Option func(*config)

type config struct {
	registry  *dialect.Registry[Strategy]
	fallbacks []dialect.ResolveOption
	logger    *slog.Logger
	validate  []schema.ValidateOption
}

// WithRegistry resolves strategies from r instead of DefaultRegistry.
func WithRegistry(r *dialect.Registry[Strategy]) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithFallback uses the strategy of d when no strategy supports the
// requested dialect. Without a dialect, the family of the requested
// dialect is tried.
func WithFallback(d ...dialect.Dialect) Option {
	return func(c *config) {
		if len(d) == 0 {
			c.fallbacks = append(c.fallbacks, dialect.FamilyFallback())
		}
		for _, fd := range d {
			c.fallbacks = append(c.fallbacks, dialect.Fallback(fd))
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// AllowDropColumn lets Migrate drop columns.
func AllowDropColumn() Option {
	return func(c *config) {
		c.validate = append(c.validate, schema.AllowDropColumn())
	}
}

// AllowDropTable lets Migrate drop tables.
func AllowDropTable() Option {
	return func(c *config) {
		c.validate = append(c.validate, schema.AllowDropTable())
	}
}

// Generator renders and applies schema changes for one dialect.
type Generator struct {
	strategy Strategy
	dialect  dialect.Dialect
	logger   *slog.Logger
	validate []schema.ValidateOption
}

// NewGenerator returns a generator for the dialect d. It fails with a
// *treesql.UnsupportedDialectError if no strategy serves d.
func NewGenerator(d dialect.Dialect, opts ...Option) (*Generator, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = DefaultRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	s, err := cfg.registry.Resolve(d, cfg.fallbacks...)
	if err != nil {
		return nil, err
	}
	return &Generator{
		strategy: s,
		dialect:  d,
		logger:   cfg.logger,
		validate: cfg.validate,
	}, nil
}

// Strategy returns the resolved strategy.
func (g *Generator) Strategy() Strategy { return g.strategy }

// Dialect returns the requested dialect.
func (g *Generator) Dialect() dialect.Dialect { return g.dialect }

// Create returns the statements creating every table of the context.
func (g *Generator) Create(ctx *schema.Context) ([]string, error) {
	g.logger.Debug("ddl: create schema", "dialect", g.dialect, "tables", ctx.Len())
	return SchemaOf(g.strategy, ctx)
}

// Drop returns the statements dropping the named tables, or every table of
// the context when no name is given.
//
// Foreign keys of remaining tables that reference a dropped table are
// dropped first, and so are the keys between tables of one cycle. Tables
// are then dropped dependents first. Dialects that cannot drop a foreign key
// keep it.
func (g *Generator) Drop(ctx *schema.Context, names ...string) ([]string, error) {
	if len(names) == 0 {
		names = ctx.Names()
	}
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := ctx.Table(name); !ok {
			return nil, treesql.NewSchemaError(name, "", "table not found")
		}
		drop[name] = true
	}
	g.logger.Debug("ddl: drop tables", "dialect", g.dialect, "tables", len(drop))
	return g.dropTables(ctx, drop, true)
}

func (g *Generator) dropTables(ctx *schema.Context, drop map[string]bool, survivors bool) ([]string, error) {
	var stmts []string
	for _, t := range ctx.Tables() {
		for _, fk := range t.ForeignKeys {
			if !drop[fk.RefTable] {
				continue
			}
			if drop[t.Name] && !ctx.InCycle(t.Name, fk.RefTable) {
				continue
			}
			if !drop[t.Name] && !survivors {
				continue
			}
			stmt, err := g.strategy.DropForeignKey(t.Name, fk)
			switch {
			case treesql.IsUnsupportedOperation(err):
				g.logger.Debug("ddl: keep foreign key", "dialect", g.dialect, "table", t.Name, "constraint", fk.Symbol(t.Name))
				continue
			case err != nil:
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
	}
	order := ctx.TopologicalOrder()
	slices.Reverse(order)
	for _, name := range order {
		if drop[name] {
			stmts = append(stmts, g.strategy.DropTable(name))
		}
	}
	return stmts, nil
}

// inlineCreator is implemented by strategies that declare foreign keys in
// CREATE TABLE because they cannot add them later.
type inlineCreator interface {
	CreateTableWithReferences(t *schema.Table) (string, error)
}

// commentSetter is implemented by strategies whose ModifyColumn also writes
// the column comment.
type commentSetter interface {
	modifySetsComment() bool
}

// Migrate returns the statements turning current into desired. Changes that
// may lose data fail with the validation errors unless allowed with
// AllowDropColumn or AllowDropTable.
//
// Statements are ordered: new tables, new columns, modified columns, dropped
// foreign keys, new foreign keys, comments, dropped columns, dropped tables.
func (g *Generator) Migrate(current, desired *schema.Context) ([]string, error) {
	result := schema.ValidateDiff(current.Tables(), desired.Tables(), g.validate...)
	if result.HasErrors() {
		return nil, result.Err()
	}
	for _, w := range result.Warnings {
		g.logger.Warn("ddl: migration warning", "dialect", g.dialect, "warning", w.Error())
	}

	var (
		stmts    []string
		comments []string
		added    = make(map[string]bool)
		dropped  = make(map[string]bool)
		modified = make(map[string]bool)
		inline   inlineCreator
	)
	inline, _ = g.strategy.(inlineCreator)
	sc, ok := g.strategy.(commentSetter)
	commented := ok && sc.modifySetsComment()
	for _, c := range schema.Diff(current, desired) {
		var (
			stmt string
			err  error
		)
		switch c.Kind {
		case schema.AddTable:
			added[c.Table.Name] = true
			if inline != nil {
				stmt, err = inline.CreateTableWithReferences(c.Table)
			} else {
				stmt, err = g.strategy.CreateTable(c.Table)
			}
			if err == nil {
				var cs []string
				cs, err = g.strategy.AddComment(c.Table)
				comments = append(comments, cs...)
			}
		case schema.AddColumn:
			stmt, err = g.strategy.AddColumn(c.Table.Name, c.Column)
		case schema.ModifyColumn:
			modified[c.Table.Name+"."+c.Column.Name] = true
			stmt, err = g.strategy.ModifyColumn(c.Table.Name, c.From, c.Column)
		case schema.DropForeignKey:
			stmt, err = g.strategy.DropForeignKey(c.Table.Name, c.ForeignKey)
		case schema.AddForeignKey:
			if inline != nil && added[c.Table.Name] {
				continue
			}
			stmt, err = g.strategy.AddForeignKey(c.Table.Name, c.ForeignKey)
		case schema.ModifyComment:
			if c.Column != nil && commented && modified[c.Table.Name+"."+c.Column.Name] {
				continue
			}
			t := &schema.Table{Name: c.Table.Name}
			if c.Column != nil {
				t.Columns = []*schema.Column{c.Column}
			} else {
				t.Comment = c.Table.Comment
			}
			var cs []string
			cs, err = g.strategy.AddComment(t)
			comments = append(comments, cs...)
		case schema.DropColumn:
			stmt = g.strategy.DropColumn(c.Table.Name, c.Column.Name)
		case schema.DropTable:
			dropped[c.Table.Name] = true
		}
		if err != nil {
			return nil, fmt.Errorf("ddl: %s: %w", c, err)
		}
		if c.Kind > schema.ModifyComment && comments != nil {
			stmts, comments = append(stmts, comments...), nil
		}
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	stmts = append(stmts, comments...)
	if len(dropped) > 0 {
		drops, err := g.dropTables(current, dropped, false)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, drops...)
	}
	g.logger.Debug("ddl: migrate", "dialect", g.dialect, "statements", len(stmts))
	return stmts, nil
}

// Apply executes the statements in order and stops at the first failure.
func (g *Generator) Apply(ctx context.Context, exec Execer, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := exec.Exec(ctx, stmt); err != nil {
			if sql.IsConstraintError(err) {
				g.logger.Error("ddl: existing rows violate the statement", "dialect", g.dialect, "statement", stmt)
			}
			return fmt.Errorf("ddl: statement %d of %d: %w", i+1, len(stmts), err)
		}
		g.logger.Info("ddl: applied", "dialect", g.dialect, "statement", stmt)
	}
	return nil
}

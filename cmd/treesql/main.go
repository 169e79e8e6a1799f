// Command treesql generates cross-dialect DDL from a schema file and runs
// recursive tree queries against a live database.
//
//	treesql ddl -schema shop.yaml -dialect mysql,postgres [-out dir] [-watch]
//	treesql drop -schema shop.yaml -dialect oracle [-table orders]
//	treesql migrate -schema shop.yaml -dsn postgres://... [-apply]
//	treesql inspect -dsn file:shop.db -target sqlserver
//	treesql tree -dsn file:shop.db -table category -anchor "id = #{id}" -param id=3 -breadcrumb
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/syssam/treesql/dialect"
)

const usage = `usage: treesql <command> [flags]

commands:
  ddl      render CREATE statements of a schema file
  drop     render DROP statements of a schema file
  migrate  render (and apply) the changes from a live database to a schema file
  inspect  render the schema of a live database in another dialect
  tree     run a recursive tree query

Run "treesql <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "treesql:", err)
		}
		os.Exit(1)
	}
}

// command is a subcommand. It parses args with its own flag set.
type command func(ctx context.Context, args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"ddl":     runDDL,
	"drop":    runDrop,
	"migrate": runMigrate,
	"inspect": runInspect,
	"tree":    runTree,
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd(ctx, args[1:], stdout, stderr)
}

// flags is the flag set of a command with the flags every command shares.
type flags struct {
	*flag.FlagSet
	verbose bool
}

func newFlags(name string, stderr io.Writer) *flags {
	fs := &flags{FlagSet: flag.NewFlagSet(name, flag.ContinueOnError)}
	fs.SetOutput(stderr)
	fs.BoolVar(&fs.verbose, "v", false, "log debug messages and every statement")
	return fs
}

// logger returns the command logger, writing text records to w.
func (fs *flags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if fs.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// listFlag collects a repeatable flag. Values may also be comma-separated.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

// parseDialects parses a comma-separated dialect list.
func parseDialects(s string) ([]dialect.Dialect, error) {
	var l listFlag
	_ = l.Set(s)
	if len(l) == 0 {
		return nil, errors.New("no dialect given")
	}
	ds := make([]dialect.Dialect, len(l))
	for i, name := range l {
		d, err := dialect.Parse(name)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

func required(fs *flags, names ...string) error {
	for _, name := range names {
		if f := fs.Lookup(name); f != nil && f.Value.String() == "" {
			return fmt.Errorf("%s: -%s is required", fs.Name(), name)
		}
	}
	return nil
}

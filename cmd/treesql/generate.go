package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql/ddl"
	"github.com/syssam/treesql/extract"
)

func runDDL(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("ddl", stderr)
	var (
		path     = fs.String("schema", "", "schema file (YAML)")
		dialects = fs.String("dialect", "mysql", "comma-separated target dialects")
		out      = fs.String("out", "", "write <dialect>.sql files to this directory instead of stdout")
		fallback = fs.Bool("fallback", false, "render compatible engines with their family strategy")
		watchF   = fs.Bool("watch", false, "regenerate when the schema file changes (requires -out)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "schema"); err != nil {
		return err
	}
	if *watchF && *out == "" {
		return fmt.Errorf("ddl: -watch requires -out")
	}
	ds, err := parseDialects(*dialects)
	if err != nil {
		return err
	}
	logger := fs.logger(stderr)
	opts := []ddl.Option{ddl.WithLogger(logger)}
	if *fallback {
		opts = append(opts, ddl.WithFallback())
	}
	w := &scriptWriter{stdout: stdout, dir: *out, logger: logger, many: len(ds) > 1}
	generate := func() error {
		desired, err := extract.Load(ctx, extract.YAMLFile(*path))
		if err != nil {
			return err
		}
		scripts, err := render(ctx, ds, opts, func(g *ddl.Generator) ([]string, error) {
			return g.Create(desired)
		})
		if err != nil {
			return err
		}
		return w.write(ds, scripts)
	}
	if err := generate(); err != nil {
		return err
	}
	if !*watchF {
		return nil
	}
	return watch(ctx, *path, generate, logger)
}

func runDrop(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("drop", stderr)
	var (
		path     = fs.String("schema", "", "schema file (YAML)")
		dialects = fs.String("dialect", "mysql", "comma-separated target dialects")
		tables   listFlag
	)
	fs.Var(&tables, "table", "table to drop, repeatable (default: all tables)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "schema"); err != nil {
		return err
	}
	ds, err := parseDialects(*dialects)
	if err != nil {
		return err
	}
	logger := fs.logger(stderr)
	current, err := extract.Load(ctx, extract.YAMLFile(*path))
	if err != nil {
		return err
	}
	scripts, err := render(ctx, ds, []ddl.Option{ddl.WithLogger(logger)}, func(g *ddl.Generator) ([]string, error) {
		return g.Drop(current, tables...)
	})
	if err != nil {
		return err
	}
	w := &scriptWriter{stdout: stdout, logger: logger, many: len(ds) > 1}
	return w.write(ds, scripts)
}

// render runs fn with a generator of each dialect concurrently and returns
// the scripts in dialect order.
func render(ctx context.Context, ds []dialect.Dialect, opts []ddl.Option, fn func(*ddl.Generator) ([]string, error)) ([]string, error) {
	scripts := make([]string, len(ds))
	g, ctx := errgroup.WithContext(ctx)
	for i, d := range ds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gen, err := ddl.NewGenerator(d, opts...)
			if err != nil {
				return err
			}
			stmts, err := fn(gen)
			if err != nil {
				return fmt.Errorf("%s: %w", d, err)
			}
			scripts[i] = ddl.Script(stmts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scripts, nil
}

// scriptWriter prints scripts or writes them to <dir>/<dialect>.sql.
// A file is rewritten only when its script changed.
type scriptWriter struct {
	stdout io.Writer
	dir    string
	many   bool
	logger *slog.Logger

	mu     sync.Mutex
	hashes map[dialect.Dialect]uint64
}

func (w *scriptWriter) write(ds []dialect.Dialect, scripts []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, d := range ds {
		if w.dir == "" {
			if w.many {
				fmt.Fprintf(w.stdout, "-- %s\n", d)
			}
			fmt.Fprint(w.stdout, scripts[i])
			continue
		}
		sum := xxh3.HashString(scripts[i])
		if prev, ok := w.hashes[d]; ok && prev == sum {
			w.logger.Debug("ddl: script unchanged", "dialect", d)
			continue
		}
		path := filepath.Join(w.dir, string(d)+".sql")
		if err := os.WriteFile(path, []byte(scripts[i]), 0o644); err != nil {
			return err
		}
		if w.hashes == nil {
			w.hashes = make(map[dialect.Dialect]uint64)
		}
		w.hashes[d] = sum
		w.logger.Info("ddl: wrote script", "dialect", d, "path", path)
	}
	return nil
}

// watch calls regenerate whenever the file at path is written, until ctx
// is done. Editors often replace the file on save, so its directory is
// watched rather than the file.
func watch(ctx context.Context, path string, regenerate func() error, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	logger.Info("ddl: watching", "path", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if err := regenerate(); err != nil {
				logger.Error("ddl: regenerate", "path", path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("ddl: watch", "error", err)
		}
	}
}


package cte

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql"
)

// Executor runs a query and returns its rows. *sql.Driver implements it.
type Executor interface {
	QueryForList(ctx context.Context, query string) ([]sql.Row, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry resolves strategies from r instead of DefaultRegistry.
func WithRegistry(r *dialect.Registry[Strategy]) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithFallback uses the strategy of d when no strategy supports the
// requested dialect. Without a dialect, the family of the requested
// dialect is tried.
func WithFallback(d ...dialect.Dialect) Option {
	return func(e *Engine) {
		if len(d) == 0 {
			e.fallbacks = append(e.fallbacks, dialect.FamilyFallback())
		}
		for _, fd := range d {
			e.fallbacks = append(e.fallbacks, dialect.Fallback(fd))
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Engine builds and runs tree queries. It is safe for concurrent use.
type Engine struct {
	registry  *dialect.Registry[Strategy]
	fallbacks []dialect.ResolveOption
	logger    *slog.Logger
}

// NewEngine returns an engine configured with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Build renders the request as one self-contained statement of dialect d.
// Parameters are rendered as literals, so the statement takes no arguments.
func (e *Engine) Build(req Request, d dialect.Dialect) (string, error) {
	s, err := e.registry.Resolve(d, e.fallbacks...)
	if err != nil {
		return "", err
	}
	parser := sql.TemplateParser{Dialect: d}
	anchor, err := parser.Parse(req.Anchor.Segment, req.Anchor.Params)
	if err != nil {
		return "", fmt.Errorf("cte: anchor: %w", err)
	}
	filter, err := parser.Parse(req.Filter.Segment, req.Filter.Params)
	if err != nil {
		return "", fmt.Errorf("cte: filter: %w", err)
	}
	q := Query{
		Table:            req.Table,
		ID:               req.ID,
		ParentID:         req.ParentID,
		Breadcrumb:       req.Breadcrumb,
		BreadcrumbColumn: req.BreadcrumbColumn,
		MaxDepth:         req.MaxDepth,
		Anchor:           anchor,
		Filter:           filter,
	}
	switch req.Direction {
	case Up:
		return s.TreeUp(q)
	case UpAndDown:
		return s.TreeUpAndDown(q)
	default:
		return "", fmt.Errorf("cte: unknown direction %s", req.Direction)
	}
}

// Run builds the request and executes it with exec.
func (e *Engine) Run(ctx context.Context, req Request, d dialect.Dialect, exec Executor) ([]sql.Row, error) {
	query, err := e.Build(req, d)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("cte: run tree query", "dialect", d, "table", req.Table, "direction", req.Direction)
	rows, err := exec.QueryForList(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("cte: %s query on %s: %w", req.Direction, req.Table, err)
	}
	return rows, nil
}

package dialect

import (
	"slices"
	"sync"

	"github.com/syssam/treesql"
)

// Supporter is implemented by every dialect-specific strategy.
type Supporter interface {
	// Supports reports whether the strategy serves the dialect (exact match).
	Supports(Dialect) bool
}

// dialecter is implemented by strategies that name their own dialect. It
// lets a registry list dialects that are not built in.
type dialecter interface {
	Dialect() Dialect
}

// Registry resolves a strategy for a dialect by predicate: the first
// registered strategy whose Supports returns true wins.
//
// Registration is append-only and meant to happen once during startup.
// Resolve is safe for concurrent use.
type Registry[S Supporter] struct {
	kind       string
	mu         sync.RWMutex
	strategies []S
}

// NewRegistry returns a registry for the given kind ("ddl", "cte")
// holding the given strategies in order.
func NewRegistry[S Supporter](kind string, strategies ...S) *Registry[S] {
	return &Registry[S]{kind: kind, strategies: append([]S(nil), strategies...)}
}

// Register appends a strategy. A new dialect is added by registering an
// additional strategy; existing registrations are never replaced.
func (r *Registry[S]) Register(s S) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies = append(r.strategies, s)
}

// Len returns the number of registered strategies.
func (r *Registry[S]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.strategies)
}

// Dialects returns the dialects served by at least one strategy: the
// built-in ones in their usual order, then the dialects named by other
// strategies in registration order.
func (r *Registry[S]) Dialects() []Dialect {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dialects()
}

// dialects must be called with r.mu held.
func (r *Registry[S]) dialects() []Dialect {
	var ds []Dialect
	for _, d := range all {
		if _, ok := r.lookup(d); ok {
			ds = append(ds, d)
		}
	}
	for _, s := range r.strategies {
		n, ok := any(s).(dialecter)
		if !ok || n.Dialect().Valid() || slices.Contains(ds, n.Dialect()) {
			continue
		}
		ds = append(ds, n.Dialect())
	}
	return ds
}

// ResolveOption configures a single Resolve call.
type ResolveOption func(*resolveConfig)

type resolveConfig struct {
	fallback []Dialect
	family   bool
}

// Fallback makes Resolve use the strategy of d when no strategy supports
// the requested dialect. Without it, Resolve fails.
func Fallback(d Dialect) ResolveOption {
	return func(c *resolveConfig) {
		c.fallback = append(c.fallback, d)
	}
}

// FamilyFallback makes Resolve try the requested dialect's Family, so a
// TiDB request is served by the MySQL strategy.
func FamilyFallback() ResolveOption {
	return func(c *resolveConfig) {
		c.family = true
	}
}

// Resolve returns the first strategy supporting d. If none does, the
// opted-in fallbacks are tried in order: family first, then explicit ones.
func (r *Registry[S]) Resolve(d Dialect, opts ...ResolveOption) (S, error) {
	cfg := &resolveConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.lookup(d); ok {
		return s, nil
	}
	if cfg.family && d.Family() != d {
		if s, ok := r.lookup(d.Family()); ok {
			return s, nil
		}
	}
	for _, f := range cfg.fallback {
		if s, ok := r.lookup(f); ok {
			return s, nil
		}
	}
	var (
		zero       S
		registered []string
	)
	for _, k := range r.dialects() {
		registered = append(registered, string(k))
	}
	return zero, treesql.NewUnsupportedDialectError(r.kind, string(d), registered)
}

// lookup must be called with r.mu held.
func (r *Registry[S]) lookup(d Dialect) (S, bool) {
	for _, s := range r.strategies {
		if s.Supports(d) {
			return s, true
		}
	}
	var zero S
	return zero, false
}

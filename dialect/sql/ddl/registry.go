package ddl

import (
	"sync"

	"github.com/syssam/treesql/dialect"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *dialect.Registry[Strategy]
)

// NewRegistry returns a registry holding the built-in strategies.
func NewRegistry() *dialect.Registry[Strategy] {
	return dialect.NewRegistry[Strategy]("ddl",
		NewMySQL(),
		NewPostgres(),
		NewOracle(),
		NewSQLServer(),
		NewH2(),
		NewSQLite(),
	)
}

// DefaultRegistry returns the process-wide registry. Strategies registered
// on it are visible to every Generator created without WithRegistry.
func DefaultRegistry() *dialect.Registry[Strategy] {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

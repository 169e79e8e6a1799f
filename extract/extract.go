package extract

import (
	"context"

	"github.com/syssam/treesql/dialect/sql/schema"
)

// Extractor produces table definitions from an external source such as a
// live database or a schema file.
type Extractor interface {
	Extract(ctx context.Context) ([]*schema.Table, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(context.Context) ([]*schema.Table, error)

// Extract calls f(ctx).
func (f ExtractorFunc) Extract(ctx context.Context) ([]*schema.Table, error) {
	return f(ctx)
}

// Load runs the extractor and builds a validated schema context from its tables.
func Load(ctx context.Context, e Extractor) (*schema.Context, error) {
	tables, err := e.Extract(ctx)
	if err != nil {
		return nil, err
	}
	return schema.NewContext(tables...)
}

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// inspector is the part of an atlas driver used for extraction.
type inspector interface {
	InspectSchema(ctx context.Context, name string, opts *atlas.InspectOptions) (*atlas.Schema, error)
}

// Atlas extracts tables from a live database with the atlas inspectors.
// MySQL, PostgreSQL and SQLite databases (and engines of their families)
// are supported.
type Atlas struct {
	db      atlas.ExecQuerier
	dialect dialect.Dialect
	schema  string
	tables  []string
	logger  *slog.Logger
}

// AtlasOption configures an Atlas extractor.
type AtlasOption func(*Atlas)

// InSchema inspects the named schema instead of the connection's current one.
func InSchema(name string) AtlasOption {
	return func(a *Atlas) {
		a.schema = name
	}
}

// OnlyTables limits the inspection to the named tables.
func OnlyTables(names ...string) AtlasOption {
	return func(a *Atlas) {
		a.tables = append(a.tables, names...)
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) AtlasOption {
	return func(a *Atlas) {
		a.logger = l
	}
}

// NewAtlas returns an extractor inspecting db, which speaks dialect d.
// A *sql.DB satisfies atlas.ExecQuerier.
func NewAtlas(db atlas.ExecQuerier, d dialect.Dialect, opts ...AtlasOption) *Atlas {
	a := &Atlas{db: db, dialect: d, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// inspectable lists the dialect families atlas can inspect.
var inspectable = []string{string(dialect.MySQL), string(dialect.Postgres), string(dialect.SQLite)}

func (a *Atlas) open() (inspector, error) {
	var (
		drv inspector
		err error
	)
	switch a.dialect.Family() {
	case dialect.MySQL:
		drv, err = mysql.Open(a.db)
	case dialect.Postgres:
		drv, err = postgres.Open(a.db)
	case dialect.SQLite:
		drv, err = sqlite.Open(a.db)
	default:
		return nil, treesql.NewUnsupportedDialectError("extract", string(a.dialect), inspectable)
	}
	if err != nil {
		return nil, fmt.Errorf("extract: open %s inspector: %w", a.dialect, err)
	}
	return drv, nil
}

// Extract inspects the database schema and converts its tables.
func (a *Atlas) Extract(ctx context.Context) ([]*schema.Table, error) {
	drv, err := a.open()
	if err != nil {
		return nil, err
	}
	s, err := drv.InspectSchema(ctx, a.schema, &atlas.InspectOptions{
		Mode:   atlas.InspectTables,
		Tables: a.tables,
	})
	if err != nil {
		return nil, fmt.Errorf("extract: inspect %s: %w", a.dialect, err)
	}
	tables := make([]*schema.Table, 0, len(s.Tables))
	for _, t := range s.Tables {
		tt, err := a.convertTable(t)
		if err != nil {
			return nil, err
		}
		tables = append(tables, tt)
	}
	a.logger.Debug("extract: inspected schema",
		slog.String("dialect", string(a.dialect)),
		slog.String("schema", s.Name),
		slog.Int("tables", len(tables)),
	)
	return tables, nil
}

func (a *Atlas) convertTable(t *atlas.Table) (*schema.Table, error) {
	tt := schema.NewTable(t.Name).SetComment(comment(t.Attrs))
	pk := make(map[*atlas.Column]bool)
	if t.PrimaryKey != nil {
		for _, p := range t.PrimaryKey.Parts {
			if p.C != nil {
				pk[p.C] = true
			}
		}
	}
	for _, c := range t.Columns {
		col, err := a.convertColumn(t.Name, c)
		if err != nil {
			return nil, err
		}
		col.PrimaryKey = pk[c]
		tt.AddColumns(col)
	}
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) != 1 || len(fk.RefColumns) != 1 || fk.RefTable == nil {
			a.logger.Warn("extract: skip composite foreign key",
				slog.String("table", t.Name),
				slog.String("constraint", fk.Symbol),
			)
			continue
		}
		tt.AddForeignKeys(&schema.ForeignKey{
			Name:      constraintName(fk.Symbol),
			Column:    fk.Columns[0].Name,
			RefTable:  fk.RefTable.Name,
			RefColumn: fk.RefColumns[0].Name,
			OnDelete:  referenceOption(fk.OnDelete),
			OnUpdate:  referenceOption(fk.OnUpdate),
		})
	}
	return tt, nil
}

func (a *Atlas) convertColumn(table string, c *atlas.Column) (*schema.Column, error) {
	col := &schema.Column{
		Name:          c.Name,
		Comment:       comment(c.Attrs),
		AutoIncrement: autoIncrement(c.Attrs),
	}
	if c.Type != nil {
		col.Nullable = c.Type.Null
		if err := a.columnType(col, c.Type); err != nil {
			return nil, fmt.Errorf("extract: %s.%s: %w", table, c.Name, err)
		}
	}
	switch x := c.Default.(type) {
	case *atlas.Literal:
		col.Default = x.V
	case *atlas.RawExpr:
		col.Default = x.X
	}
	// PostgreSQL serial columns default to their sequence.
	if strings.HasPrefix(strings.ToLower(col.Default), "nextval(") {
		col.AutoIncrement = true
	}
	if col.AutoIncrement {
		col.Default = ""
	}
	return col, nil
}

// columnType sets the abstract type, precision and scale of col.
func (a *Atlas) columnType(col *schema.Column, ct *atlas.ColumnType) error {
	unsupported := func() error {
		raw := ct.Raw
		if raw == "" {
			raw = fmt.Sprintf("%T", ct.Type)
		}
		return treesql.NewUnsupportedColumnTypeError(string(a.dialect), raw)
	}
	switch t := ct.Type.(type) {
	case *atlas.IntegerType:
		col.Type = a.integerType(t.T)
	case *postgres.SerialType:
		col.Type = a.integerType(strings.TrimSuffix(t.T, "serial") + "int")
		col.AutoIncrement = true
	case *atlas.FloatType:
		switch strings.ToLower(t.T) {
		case "real", "float4":
			col.Type = schema.TypeFloat
		case "float":
			// MySQL FLOAT is single precision, FLOAT(p) above 24 is double.
			col.Type = schema.TypeFloat
			if t.Precision > 24 {
				col.Type = schema.TypeDouble
			}
		default:
			col.Type = schema.TypeDouble
		}
	case *atlas.DecimalType:
		col.Type, col.Precision, col.Scale = schema.TypeDecimal, t.Precision, t.Scale
	case *atlas.BoolType:
		col.Type = schema.TypeBoolean
	case *atlas.StringType:
		switch strings.ToLower(t.T) {
		case "char", "character", "nchar", "native character", "bpchar":
			col.Type, col.Precision = schema.TypeChar, t.Size
		case "varchar", "character varying", "varying character", "nvarchar":
			col.Type, col.Precision = schema.TypeVarchar, t.Size
		default:
			col.Type = schema.TypeText
		}
	case *atlas.TimeType:
		switch strings.ToLower(t.T) {
		case "date":
			col.Type = schema.TypeDate
		case "time", "time without time zone", "timetz", "time with time zone":
			col.Type = schema.TypeTime
		case "datetime":
			col.Type = schema.TypeDateTime
		case "timestamptz", "timestamp with time zone":
			col.Type = schema.TypeTimestampTZ
		default:
			col.Type = schema.TypeTimestamp
		}
	case *atlas.BinaryType:
		switch strings.ToLower(t.T) {
		case "binary", "varbinary":
			col.Type = schema.TypeBinary
			if t.Size != nil {
				col.Precision = *t.Size
			}
		default:
			col.Type = schema.TypeBlob
		}
	case *atlas.JSONType:
		col.Type = schema.TypeJSON
	case *atlas.UUIDType:
		col.Type = schema.TypeUUID
	default:
		return unsupported()
	}
	return nil
}

// integerType maps an integer type name. SQLite stores every integer in
// up to 8 bytes, so its INTEGER is a BIGINT.
func (a *Atlas) integerType(name string) schema.ColumnType {
	switch strings.ToLower(name) {
	case "tinyint":
		return schema.TypeTinyInt
	case "smallint", "int2":
		return schema.TypeSmallInt
	case "bigint", "int8", "unsigned big int", "uint64":
		return schema.TypeBigInt
	case "integer":
		if a.dialect.Family() == dialect.SQLite {
			return schema.TypeBigInt
		}
		return schema.TypeInt
	default:
		return schema.TypeInt
	}
}

func comment(attrs []atlas.Attr) string {
	for _, a := range attrs {
		if c, ok := a.(*atlas.Comment); ok {
			return c.Text
		}
	}
	return ""
}

func autoIncrement(attrs []atlas.Attr) bool {
	for _, a := range attrs {
		switch a.(type) {
		case *sqlite.AutoIncrement, *mysql.AutoIncrement, *postgres.Identity:
			return true
		}
	}
	return false
}

// constraintName drops the numeric identifiers SQLite reports for
// unnamed constraints.
func constraintName(symbol string) string {
	if strings.Trim(symbol, "0123456789") == "" {
		return ""
	}
	return symbol
}

// referenceOption maps an atlas action. NO ACTION is the default of every
// dialect and is reported as unset.
func referenceOption(o atlas.ReferenceOption) schema.ReferenceOption {
	r, err := schema.ParseReferenceOption(string(o))
	if err != nil || r == schema.NoAction {
		return ""
	}
	return r
}

package extract_test

import (
	"context"
	stdsql "database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql"
	"github.com/syssam/treesql/dialect/sql/ddl"
	"github.com/syssam/treesql/dialect/sql/schema"
	"github.com/syssam/treesql/extract"
)

const shopYAML = `
tables:
  - entity: Customer
    columns:
      - {name: id, type: bigint, primary_key: true, auto_increment: true}
      - {name: name, type: varchar, size: 100}
  - name: orders
    columns:
      - {name: id, type: bigint, primary_key: true, auto_increment: true}
      - {name: customer_id, type: bigint}
      - {name: total, type: decimal, precision: 10, scale: 2, default: "0"}
      - {name: note, type: text, nullable: true}
    foreign_keys:
      - {column: customer_id, ref_entity: Customer, on_delete: cascade}
`

func TestParseYAML(t *testing.T) {
	tables, err := extract.ParseYAML([]byte(shopYAML))
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, "orders", tables[1].Name)

	name, ok := tables[0].Column("name")
	require.True(t, ok)
	assert.Equal(t, schema.TypeVarchar, name.Type)
	assert.Equal(t, 100, name.Precision)
	assert.False(t, name.Nullable)

	total, ok := tables[1].Column("total")
	require.True(t, ok)
	assert.Equal(t, schema.TypeDecimal, total.Type)
	assert.Equal(t, 10, total.Precision)
	assert.Equal(t, 2, total.Scale)
	assert.Equal(t, "0", total.Default)

	require.Len(t, tables[1].ForeignKeys, 1)
	fk := tables[1].ForeignKeys[0]
	assert.Equal(t, "customers", fk.RefTable)
	assert.Equal(t, "id", fk.RefColumn)
	assert.Equal(t, schema.Cascade, fk.OnDelete)
	assert.Equal(t, "fk_orders_customer_id", fk.Symbol("orders"))
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name, doc string
	}{
		{"UnknownField", "tables:\n  - name: a\n    colums: []\n"},
		{"UnknownType", "tables:\n  - name: a\n    columns:\n      - {name: id, type: money}\n"},
		{"NameAndEntity", "tables:\n  - {name: a, entity: A}\n"},
		{"NoName", "tables:\n  - columns: []\n"},
		{"UnknownAction", "tables:\n  - name: a\n    foreign_keys:\n      - {column: b_id, ref_table: b, on_delete: explode}\n"},
		{"BothReferences", "tables:\n  - name: a\n    foreign_keys:\n      - {column: b_id, ref_table: b, ref_entity: B}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extract.ParseYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, treesql.IsSchemaError(err), err)
		})
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	tables, err := extract.ParseYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestYAMLFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(shopYAML), 0o600))

	s, err := extract.Load(ctx, extract.YAMLFile(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, s.TopologicalOrder())

	_, err = extract.YAMLFile(filepath.Join(t.TempDir(), "missing.yaml")).Extract(ctx)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadDangling(t *testing.T) {
	doc := "tables:\n  - name: a\n    columns:\n      - {name: b_id, type: int}\n    foreign_keys:\n      - {column: b_id, ref_table: b}\n"
	_, err := extract.Load(context.Background(), extract.YAMLReader(strings.NewReader(doc)))
	require.Error(t, err)
	assert.True(t, treesql.IsDanglingForeignKey(err))
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "order_items", extract.TableName("OrderItem"))
	assert.Equal(t, "customers", extract.TableName("Customer"))
}

func TestExtractorFunc(t *testing.T) {
	e := extract.ExtractorFunc(func(context.Context) ([]*schema.Table, error) {
		return []*schema.Table{schema.NewTable("a").AddColumns(&schema.Column{Name: "id", Type: schema.TypeInt, PrimaryKey: true})}, nil
	})
	s, err := extract.Load(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, s.Names())
}

func TestAtlasUnsupportedDialect(t *testing.T) {
	_, err := extract.NewAtlas(nil, dialect.Oracle).Extract(context.Background())
	require.Error(t, err)
	assert.True(t, treesql.IsUnsupportedDialect(err))
}

func TestAtlasSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := stdsql.Open("sqlite", filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	desired, err := extract.Load(ctx, extract.YAMLReader(strings.NewReader(shopYAML)))
	require.NoError(t, err)
	gen, err := ddl.NewGenerator(dialect.SQLite)
	require.NoError(t, err)
	stmts, err := gen.Create(desired)
	require.NoError(t, err)
	require.NoError(t, gen.Apply(ctx, sql.OpenDB(dialect.SQLite, db), stmts))

	current, err := extract.Load(ctx, extract.NewAtlas(db, dialect.SQLite))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"customers", "orders"}, current.Names())

	orders, ok := current.Table("orders")
	require.True(t, ok)
	id, ok := orders.Column("id")
	require.True(t, ok)
	assert.Equal(t, schema.TypeBigInt, id.Type)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)
	assert.False(t, id.Nullable)

	total, ok := orders.Column("total")
	require.True(t, ok)
	assert.Equal(t, schema.TypeDecimal, total.Type)
	assert.Equal(t, 10, total.Precision)
	assert.Equal(t, 2, total.Scale)
	assert.Equal(t, "0", total.Default)

	note, ok := orders.Column("note")
	require.True(t, ok)
	assert.Equal(t, schema.TypeText, note.Type)
	assert.True(t, note.Nullable)

	require.Len(t, orders.ForeignKeys, 1)
	fk := orders.ForeignKeys[0]
	assert.Equal(t, "customer_id", fk.Column)
	assert.Equal(t, "customers", fk.RefTable)
	assert.Equal(t, "id", fk.RefColumn)
	assert.Equal(t, schema.Cascade, fk.OnDelete)
	assert.Empty(t, fk.OnUpdate)
	assert.Equal(t, "fk_orders_customer_id", fk.Symbol("orders"))

	// The inspected schema is the one that was created.
	assert.Empty(t, schema.Diff(current, desired))

	only, err := extract.NewAtlas(db, dialect.SQLite, extract.OnlyTables("customers")).Extract(ctx)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "customers", only[0].Name)
}

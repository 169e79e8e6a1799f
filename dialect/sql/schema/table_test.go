package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/syssam/treesql"
)

func TestColumnType(t *testing.T) {
	for _, typ := range Types() {
		t.Run(typ.String(), func(t *testing.T) {
			assert.True(t, typ.Valid())
			parsed, err := ParseColumnType(typ.String())
			require.NoError(t, err)
			assert.Equal(t, typ, parsed)
		})
	}
	assert.Len(t, Types(), 20)
	assert.False(t, TypeInvalid.Valid())
	assert.Equal(t, "ColumnType(99)", ColumnType(99).String())

	for in, want := range map[string]ColumnType{
		"varchar":     TypeVarchar,
		" Integer ":   TypeInt,
		"bool":        TypeBoolean,
		"timestamptz": TypeTimestampTZ,
		"clob":        TypeText,
	} {
		got, err := ParseColumnType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseColumnType("geometry")
	assert.ErrorIs(t, err, treesql.ErrInvalidSchema)
}

func TestColumnTypeText(t *testing.T) {
	var c struct {
		Type ColumnType `yaml:"type"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("type: decimal\n"), &c))
	assert.Equal(t, TypeDecimal, c.Type)

	out, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, "type: DECIMAL\n", string(out))

	assert.Error(t, yaml.Unmarshal([]byte("type: point\n"), &c))
	_, err = TypeInvalid.MarshalText()
	assert.Error(t, err)
}

func TestReferenceOption(t *testing.T) {
	for in, want := range map[string]ReferenceOption{
		"cascade":     Cascade,
		"SET_NULL":    SetNull,
		"set  null":   SetNull,
		"no action":   NoAction,
		"restrict":    Restrict,
		"SET DEFAULT": SetDefault,
		"":            "",
	} {
		got, err := ParseReferenceOption(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseReferenceOption("explode")
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	tbl := NewTable("category").
		AddColumns(
			&Column{Name: "id", Type: TypeBigInt, PrimaryKey: true},
			&Column{Name: "parent_id", Type: TypeBigInt, Nullable: true},
			&Column{Name: "name", Type: TypeVarchar, Precision: 64},
		).
		AddForeignKeys(
			&ForeignKey{Column: "parent_id", RefTable: "category", RefColumn: "id"},
			&ForeignKey{Name: "fk_owner", Column: "parent_id", RefTable: "users", RefColumn: "id"},
		)
	assert.False(t, tbl.HasComments())
	tbl.SetComment("tree")
	assert.True(t, tbl.HasComments())

	c, ok := tbl.Column("name")
	require.True(t, ok)
	assert.Equal(t, 64, c.Precision)
	_, ok = tbl.Column("missing")
	assert.False(t, ok)

	require.Len(t, tbl.PrimaryKey(), 1)
	assert.Equal(t, "id", tbl.PrimaryKey()[0].Name)
	assert.Equal(t, "fk_category_parent_id", tbl.ForeignKeys[0].Symbol(tbl.Name))
	assert.Equal(t, "fk_owner", tbl.ForeignKeys[1].Symbol(tbl.Name))
	assert.Equal(t, []string{"category", "users"}, tbl.References())
}

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/treesql"
)

func TestValidateTable(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		r := ValidateTable(table("category", "category"))
		assert.False(t, r.HasErrors())
		assert.False(t, r.HasWarnings())
		assert.Equal(t, "No issues found", r.String())
		assert.NoError(t, r.Err())
	})

	t.Run("NoPrimaryKey", func(t *testing.T) {
		r := ValidateTable(NewTable("log").AddColumns(&Column{Name: "msg", Type: TypeText}))
		assert.False(t, r.HasErrors())
		require.True(t, r.HasWarnings())
		assert.Contains(t, r.String(), "table has no primary key")
	})

	t.Run("DuplicateColumn", func(t *testing.T) {
		r := ValidateTable(table("a").AddColumns(idColumn()))
		require.True(t, r.HasErrors())
		assert.Equal(t, "a.id: duplicate column name", r.Errors[0].Error())
		assert.True(t, treesql.IsSchemaError(r.Err()))
	})
}

func TestValidateSchema(t *testing.T) {
	r := ValidateSchema([]*Table{table("a", "b"), table("a")})
	require.True(t, r.HasErrors())
	assert.Len(t, r.Errors, 2)
	assert.Contains(t, r.String(), "duplicate table name")
	assert.Contains(t, r.String(), `foreign key references non-existent table "b"`)
	assert.Equal(t, "b", r.Errors[1].RefTable)
	assert.True(t, treesql.IsDanglingForeignKey(r.Err()))
	assert.True(t, treesql.IsSchemaError(r.Err()))
}

func TestValidateDiff(t *testing.T) {
	current := []*Table{
		NewTable("users").AddColumns(
			idColumn(),
			&Column{Name: "name", Type: TypeVarchar, Precision: 255, Nullable: true},
			&Column{Name: "legacy", Type: TypeText},
		),
		table("sessions"),
	}
	desired := []*Table{
		NewTable("users").AddColumns(
			idColumn(),
			&Column{Name: "name", Type: TypeText, Precision: 100},
			&Column{Name: "email", Type: TypeVarchar},
		),
	}

	t.Run("Strict", func(t *testing.T) {
		r := ValidateDiff(current, desired)
		assert.True(t, r.HasBreakingChanges())
		msgs := messages(r.Errors)
		assert.Contains(t, msgs, "sessions: table will be dropped")
		assert.Contains(t, msgs, "users.legacy: column will be dropped")
		assert.Contains(t, msgs, "users.name: column changing from NULL to NOT NULL may fail if column has NULL values")

		warns := messages(r.Warnings)
		assert.Contains(t, warns, "users.name: column type changing from VARCHAR to TEXT")
		assert.Contains(t, warns, "users.name: column size reducing from 255 to 100 may truncate data")
		assert.Contains(t, warns, "users.email: new NOT NULL column without default value may fail if table has data")
		assert.Contains(t, r.String(), "[BREAKING]")
	})

	t.Run("Allowed", func(t *testing.T) {
		r := ValidateDiff(current, desired, AllowDropTable(), AllowDropColumn(), AllowNullToNotNull())
		assert.False(t, r.HasErrors())
		assert.True(t, r.HasBreakingChanges(), "allowed breaking changes remain as warnings")
	})
}

func messages(errs []*ValidationError) []string {
	s := make([]string, len(errs))
	for i, e := range errs {
		s[i] = e.Error()
	}
	return s
}

package sql

import (
	"database/sql/driver"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
)

type status string

type stringer struct{ s string }

func (s stringer) String() string { return s.s }

type valuer struct {
	v   driver.Value
	err error
}

func (v valuer) Value() (driver.Value, error) { return v.v, v.err }

func TestTemplateParserParse(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect.Dialect
		tmpl    string
		params  map[string]any
		want    string
	}{
		{"NoPlaceholder", dialect.MySQL, "id = 1", nil, "id = 1"},
		{"Empty", dialect.MySQL, "", nil, ""},
		{"Int", dialect.Postgres, "id = #{id}", map[string]any{"id": 3}, "id = 3"},
		{"TrimmedName", dialect.Postgres, "id = #{ id }", map[string]any{"id": int64(7)}, "id = 7"},
		{"String", dialect.Postgres, "name = #{n}", map[string]any{"n": "O'Brien"}, "name = 'O''Brien'"},
		{"MySQLBackslash", dialect.MySQL, "path = #{p}", map[string]any{"p": `a\b'c`}, `path = 'a\\b''c'`},
		{"TiDBBackslash", dialect.TiDB, "path = #{p}", map[string]any{"p": `a\b`}, `path = 'a\\b'`},
		{"PostgresBackslash", dialect.Postgres, "path = #{p}", map[string]any{"p": `a\b`}, `path = 'a\b'`},
		{"Repeated", dialect.SQLite, "#{a} + #{a} = #{b}", map[string]any{"a": 1, "b": 2}, "1 + 1 = 2"},
		{"Nil", dialect.Postgres, "deleted_at = #{d}", map[string]any{"d": nil}, "deleted_at = NULL"},
		{"BoolTrue", dialect.Postgres, "active = #{a}", map[string]any{"a": true}, "active = TRUE"},
		{"BoolSQLServer", dialect.SQLServer, "active = #{a}", map[string]any{"a": true}, "active = 1"},
		{"BoolOracle", dialect.Oracle, "active = #{a}", map[string]any{"a": false}, "active = 0"},
		{"BoolDM", dialect.DM, "active = #{a}", map[string]any{"a": true}, "active = 1"},
		{"Float", dialect.MySQL, "score > #{s}", map[string]any{"s": 1.5}, "score > 1.5"},
		{"Uint", dialect.MySQL, "n = #{n}", map[string]any{"n": uint8(200)}, "n = 200"},
		{"NamedString", dialect.MySQL, "status = #{s}", map[string]any{"s": status("on")}, "status = 'on'"},
		{"Stringer", dialect.MySQL, "code = #{c}", map[string]any{"c": stringer{"x'y"}}, "code = 'x''y'"},
		{"Bytes", dialect.SQLite, "b = #{b}", map[string]any{"b": []byte("raw")}, "b = 'raw'"},
		{"Slice", dialect.Postgres, "id IN (#{ids})", map[string]any{"ids": []int{1, 2, 3}}, "id IN (1, 2, 3)"},
		{"StringSlice", dialect.Postgres, "code IN (#{c})", map[string]any{"c": []string{"a", "b"}}, "code IN ('a', 'b')"},
		{"EmptySlice", dialect.Postgres, "id IN (#{ids})", map[string]any{"ids": []int{}}, "id IN (NULL)"},
		{"Pointer", dialect.Postgres, "id = #{id}", map[string]any{"id": ptr(5)}, "id = 5"},
		{"NilPointer", dialect.Postgres, "id = #{id}", map[string]any{"id": (*int)(nil)}, "id = NULL"},
		{"Valuer", dialect.Postgres, "id = #{id}", map[string]any{"id": valuer{v: int64(9)}}, "id = 9"},
		{"WrapperName", dialect.MySQL, "name = #{ew.paramNameValuePairs.MPGENVAL1}", map[string]any{"MPGENVAL1": "x"}, "name = 'x'"},
		{"ValueNotRescanned", dialect.Postgres, "a = #{a} AND b = #{b}", map[string]any{"a": "#{b}", "b": 1}, "a = '#{b}' AND b = 1"},
		{"PlainBrace", dialect.Postgres, "a = '{x}' AND b = #{b}", map[string]any{"b": 1}, "a = '{x}' AND b = 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TemplateParser{Dialect: tt.dialect}.Parse(tt.tmpl, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateParserTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	params := map[string]any{"t": ts}

	got, err := ParseTemplate(dialect.Postgres, "created_at > #{t}", params)
	require.NoError(t, err)
	assert.Equal(t, "created_at > '2024-03-01 10:30:00'", got)

	got, err = ParseTemplate(dialect.Oracle, "created_at > #{t}", params)
	require.NoError(t, err)
	assert.Equal(t, "created_at > TIMESTAMP '2024-03-01 10:30:00'", got)
}

func TestTemplateParserErrors(t *testing.T) {
	t.Run("MissingParameter", func(t *testing.T) {
		_, err := ParseTemplate(dialect.MySQL, "id = #{id} AND pid = #{pid}", map[string]any{"id": 1})
		require.Error(t, err)
		var e *treesql.MissingParameterError
		require.True(t, errors.As(err, &e))
		assert.Equal(t, "pid", e.Name)
		assert.Equal(t, "id = #{id} AND pid = #{pid}", e.Template)
		assert.True(t, treesql.IsMissingParameter(err))
	})

	t.Run("NilParams", func(t *testing.T) {
		_, err := ParseTemplate(dialect.MySQL, "id = #{id}", nil)
		assert.True(t, treesql.IsMissingParameter(err))
	})

	t.Run("Unterminated", func(t *testing.T) {
		_, err := ParseTemplate(dialect.MySQL, "id = #{id", map[string]any{"id": 1})
		assert.ErrorIs(t, err, treesql.ErrMalformedTemplate)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := ParseTemplate(dialect.MySQL, "id = #{ }", map[string]any{"": 1})
		assert.ErrorIs(t, err, treesql.ErrMalformedTemplate)
	})

	t.Run("UnsupportedValue", func(t *testing.T) {
		for name, v := range map[string]any{
			"NaN":    math.NaN(),
			"Inf":    math.Inf(1),
			"Map":    map[string]int{"a": 1},
			"Struct": struct{ A int }{1},
			"Chan":   make(chan int),
		} {
			t.Run(name, func(t *testing.T) {
				_, err := ParseTemplate(dialect.MySQL, "v = #{v}", map[string]any{"v": v})
				assert.ErrorIs(t, err, treesql.ErrUnsupportedValue)
			})
		}
	})

	t.Run("ValuerError", func(t *testing.T) {
		_, err := ParseTemplate(dialect.MySQL, "v = #{v}", map[string]any{"v": valuer{err: errors.New("boom")}})
		assert.ErrorIs(t, err, treesql.ErrUnsupportedValue)
		assert.Contains(t, err.Error(), "boom")
	})
}

// Substituting a value and substituting again with the same parameters
// changes nothing, since no placeholder survives the first pass.
func TestTemplateParserIdempotent(t *testing.T) {
	params := map[string]any{"id": 3, "name": "a#{id}"}
	p := TemplateParser{Dialect: dialect.H2}
	once, err := p.Parse("id = #{id} OR name = #{name}", params)
	require.NoError(t, err)
	assert.Equal(t, "id = 3 OR name = 'a#{id}'", once)
	assert.False(t, strings.Contains(strings.ReplaceAll(once, "'a#{id}'", ""), "#{"))
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		d    dialect.Dialect
		in   string
		want string
	}{
		{dialect.MySQL, "it's", "'it''s'"},
		{dialect.MySQL, `a\b`, `'a\\b'`},
		{dialect.OceanBase, `a\b`, `'a\\b'`},
		{dialect.Postgres, `a\b'`, `'a\b'''`},
		{dialect.SQLServer, "'; DROP TABLE users; --", "N'''; DROP TABLE users; --'"},
		{dialect.SQLServer, "北京", "N'北京'"},
		{dialect.SQLite, "", "''"},
	}
	for _, tt := range tests {
		t.Run(string(tt.d), func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteString(tt.d, tt.in))
		})
	}
}

func TestEscapeStringValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no_escaping_needed", "hello", "hello"},
		{"single_quote", "it's", "it''s"},
		{"multiple_quotes", "he said 'hello'", "he said ''hello''"},
		{"backslash", `path\to\file`, `path\\to\\file`},
		{"both_quote_and_backslash", `it's a \test`, `it''s a \\test`},
		{"empty_string", "", ""},
		{"sql_injection_attempt", "'; DROP TABLE users; --", "''; DROP TABLE users; --"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeStringValue(tt.input))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Nil(t, Placeholders("id = 1"))
	assert.Equal(t, []string{"id", "name"}, Placeholders("#{id} #{ name } #{id} #{"))
}

func BenchmarkTemplateParser(b *testing.B) {
	p := TemplateParser{Dialect: dialect.Postgres}
	params := map[string]any{"id": 42, "name": "node", "ids": []int{1, 2, 3}}
	for i := 0; i < b.N; i++ {
		_, _ = p.Parse("id = #{id} AND name = #{name} AND parent_id IN (#{ids})", params)
	}
}

func ptr[T any](v T) *T { return &v }

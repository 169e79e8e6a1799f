package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
)

func TestWithVars(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.Postgres, db)
	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))
	rows, err := drv.Query(WithVar(context.Background(), "foo", "bar"), "SELECT 1")
	require.NoError(t, err)
	require.NoError(t, rows.Close(), "rows should be closed to release the connection")
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET foo = 'baz'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))
	rows, err = drv.Query(WithVar(WithVar(context.Background(), "foo", "bar"), "foo", "baz"), "SELECT 1")
	require.NoError(t, err)
	require.NoError(t, rows.Close(), "rows should be closed to release the connection")
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectBegin()
	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectCommit()
	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	_, err = tx.Query(WithVar(context.Background(), "foo", "bar"), "SELECT 1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
	// A transaction is scoped to a single connection, nothing to reset.

	mock.ExpectExec("SET search_path = 'catalog'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "category"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RESET search_path").WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = drv.Exec(WithVar(context.Background(), "search_path", "catalog"), `CREATE TABLE "category" ("id" BIGINT)`)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithVarsMySQLReset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.TiDB, db)
	mock.ExpectExec(`SET cte_max_recursion_depth = '5000'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("SET cte_max_recursion_depth = NULL").WillReturnResult(sqlmock.NewResult(0, 0))
	list, err := drv.QueryForList(WithIntVar(context.Background(), "cte_max_recursion_depth", 5000), "SELECT 1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())

	v, ok := VarFromContext(WithVar(context.Background(), "a", "b"), "a")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	_, ok = VarFromContext(context.Background(), "a")
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := Open("db2", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, treesql.ErrUnsupportedDialect)
	})

	t.Run("SQLite", func(t *testing.T) {
		drv, err := Open("sqlite", ":memory:")
		require.NoError(t, err)
		defer drv.Close()
		assert.Equal(t, dialect.SQLite, drv.Dialect())
	})
}

func TestOpenDB(t *testing.T) {
	for _, d := range []dialect.Dialect{dialect.Postgres, dialect.MySQL, dialect.SQLite, dialect.Oracle} {
		t.Run(d.String(), func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(d, db)
			assert.NotNil(t, drv)
			assert.Equal(t, d, drv.Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

func TestDriverQueryForList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("Rows", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM category").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(int64(1), []byte("root")).
				AddRow(int64(2), nil))

		list, err := drv.QueryForList(context.Background(), "SELECT id, name FROM category")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, []string{"id", "name"}, list[0].Columns)

		name, ok := list[0].Get("NAME")
		require.True(t, ok)
		assert.Equal(t, "root", name, "bytes are converted to strings")

		name, ok = list[1].Get("name")
		require.True(t, ok)
		assert.Nil(t, name)

		_, ok = list[1].Get("missing")
		assert.False(t, ok)
		assert.Equal(t, map[string]any{"id": int64(1), "name": "root"}, list[0].Map())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))
		list, err := drv.QueryForList(context.Background(), "SELECT id FROM category")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("database error"))
		_, err := drv.QueryForList(context.Background(), "SELECT")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dialect/sql: query")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RowError", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(1).
			RowError(0, errors.New("row error")))
		_, err := drv.QueryForList(context.Background(), "SELECT id FROM category")
		require.Error(t, err)
	})
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("simple_exec", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewResult(1, 1))

		res, err := drv.Exec(context.Background(), "INSERT INTO users (name) VALUES ('test')")
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_with_args", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET name = \\$1 WHERE id = \\$2").
			WithArgs("Alice", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := drv.Exec(context.Background(), "UPDATE users SET name = $1 WHERE id = $2", "Alice", 1)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error", func(t *testing.T) {
		mock.ExpectExec("DROP").WillReturnError(errors.New("constraint violation"))

		_, err := drv.Exec(context.Background(), "DROP TABLE users")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dialect/sql: exec")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDriverTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("successful_commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		_, err = tx.Exec(context.Background(), `CREATE TABLE "t" ("id" BIGINT)`)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		_, err = tx.Exec(context.Background(), `CREATE TABLE "t" ("id" BIGINT)`)
		require.Error(t, err)
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_in_transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		list, err := tx.QueryForList(context.Background(), "SELECT id FROM users")
		require.NoError(t, err)
		assert.Len(t, list, 1)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContextCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock.ExpectQuery("SELECT").WillReturnError(context.Canceled)
	_, err = drv.QueryForList(ctx, "SELECT 1")
	assert.Error(t, err)
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"valid_simple", "foo", true},
		{"valid_with_underscore", "foo_bar", true},
		{"valid_with_number", "foo123", true},
		{"valid_with_dot", "schema.table", true},
		{"valid_starting_underscore", "_private", true},
		{"invalid_empty", "", false},
		{"invalid_starting_number", "123foo", false},
		{"invalid_with_space", "foo bar", false},
		{"invalid_with_quote", "foo'bar", false},
		{"invalid_with_semicolon", "foo;DROP TABLE", false},
		{"invalid_with_dash", "foo-bar", false},
		{"invalid_too_long", string(make([]byte, 129)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isValidIdentifier(tt.input))
			if tt.expected {
				assert.NoError(t, CheckIdentifier(tt.input))
			} else {
				assert.ErrorIs(t, CheckIdentifier(tt.input), treesql.ErrInvalidIdentifier)
			}
		})
	}
}

func TestWithVarsInvalidIdentifier(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.Postgres, db)

	_, err = drv.Query(WithVar(context.Background(), "foo; DROP TABLE users; --", "bar"), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session variable name")
}

func TestWithVarsEscapedValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectExec("SET foo = 'it''s escaped'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := drv.Query(WithVar(context.Background(), "foo", "it's escaped"), "SELECT 1")
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func BenchmarkDriver(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	b.Run("QueryForList", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			_, _ = drv.QueryForList(context.Background(), "SELECT 1")
		}
	})

	b.Run("Exec", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
			_, _ = drv.Exec(context.Background(), "CREATE TABLE t (id INT)")
		}
	})
}

package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/treesql/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(-1),
		WithSlowQueryHook(func(_ context.Context, query string, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	assert.Equal(t, time.Duration(-1), drv.SlowThreshold())

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	_, err = drv.QueryForList(context.Background(), "SELECT id FROM t")
	require.NoError(t, err)

	mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = drv.Exec(context.Background(), "CREATE TABLE t (id INT)")
	require.NoError(t, err)

	mock.ExpectExec("DROP").WillReturnError(errors.New("boom"))
	_, err = drv.Exec(context.Background(), "DROP TABLE t")
	require.Error(t, err)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	rows, err := drv.Query(context.Background(), "SELECT id FROM t")
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(2), s.TotalQueries)
	assert.Equal(t, int64(2), s.TotalExecs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(4), s.SlowQueries)
	assert.Len(t, slow, 4)
	assert.Contains(t, s.String(), "queries=2 execs=2")

	drv.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, drv.QueryStats().Stats())
	assert.Equal(t, time.Duration(0), StatsSnapshot{}.AvgQueryDuration())

	drv.SetSlowThreshold(time.Hour)
	assert.Equal(t, time.Hour, drv.SlowThreshold())
}

func TestStatsTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := NewStatsDriver(OpenDB(dialect.Postgres, db))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	_, err = tx.Exec(context.Background(), `CREATE TABLE "t" ("id" BIGINT)`)
	require.NoError(t, err)
	rows, err := tx.Query(context.Background(), `SELECT "id" FROM "t"`)
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), s.TotalExecs)
	assert.Equal(t, int64(1), s.TotalQueries)
	assert.Zero(t, s.SlowQueries)
}

func TestSlowQueryLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	drv := NewStatsDriver(OpenDB(dialect.MySQL, db), WithSlowThreshold(-1), WithSlowQueryLog(logger))

	mock.ExpectQuery("WITH RECURSIVE").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = drv.QueryForList(context.Background(), "WITH RECURSIVE tree_up AS (SELECT 1) SELECT * FROM tree_up")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "WITH RECURSIVE")
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.H2, db), DebugWithLogger(logger))

	mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = drv.Exec(context.Background(), "CREATE TABLE t (id INT)")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = drv.QueryForList(context.Background(), "SELECT id FROM t")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	rows, err := drv.Query(context.Background(), "SELECT id FROM t WHERE id = ?", 1)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	out := buf.String()
	assert.Contains(t, out, "CREATE TABLE t (id INT)")
	assert.Contains(t, out, "dialect=h2")
	assert.Contains(t, out, "SELECT id FROM t")
}

func TestOpenWithStats(t *testing.T) {
	drv, stats, err := OpenWithStats("sqlite", "file:"+t.TempDir()+"/stats.db", WithSlowThreshold(time.Hour))
	require.NoError(t, err)
	defer drv.Close()
	assert.Equal(t, dialect.SQLite, drv.Dialect())

	ctx := context.Background()
	_, err = drv.Exec(ctx, "CREATE TABLE node (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	rows, err := drv.QueryForList(ctx, "SELECT id FROM node")
	require.NoError(t, err)
	assert.Empty(t, rows)

	snap := stats.Stats()
	assert.Equal(t, int64(1), snap.TotalExecs)
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Zero(t, snap.SlowQueries)

	_, _, err = OpenWithStats("nosuchdb", "x")
	assert.Error(t, err)
}

func TestStatementLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewStatsDriver(OpenDB(dialect.Postgres, db), WithStatementLog(logger))

	mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = drv.Exec(context.Background(), `CREATE TABLE "t" ("id" BIGINT)`)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = drv.QueryForList(context.Background(), `SELECT "id" FROM "t"`)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	assert.Contains(t, out, "msg=exec")
	assert.Contains(t, out, "msg=query")
	assert.Contains(t, out, "dialect=postgres")
	snap := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), snap.TotalExecs)
	assert.Equal(t, int64(1), snap.TotalQueries)
}

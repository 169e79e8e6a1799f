package cte

import (
	"sync"

	"github.com/syssam/treesql/dialect"
)

// Strategy renders recursive tree queries for one dialect.
type Strategy interface {
	dialect.Supporter
	Dialect() dialect.Dialect
	TreeUp(q Query) (string, error)
	TreeUpAndDown(q Query) (string, error)
}

// MySQL renders tree queries for MySQL 8.0 and later.
type MySQL struct{ flavor }

// NewMySQL returns the MySQL strategy.
func NewMySQL() *MySQL {
	return &MySQL{flavor{
		dialect:   dialect.MySQL,
		recursive: true,
		text:      "CHAR(4000)",
		concat:    concatFunc,
		absent:    instr,
	}}
}

// Postgres renders tree queries for PostgreSQL.
type Postgres struct{ flavor }

// NewPostgres returns the PostgreSQL strategy.
func NewPostgres() *Postgres {
	return &Postgres{flavor{
		dialect:   dialect.Postgres,
		recursive: true,
		text:      "TEXT",
		concat:    pipes,
		absent:    position,
	}}
}

// Oracle renders tree queries for Oracle 11g R2 and later.
type Oracle struct{ flavor }

// NewOracle returns the Oracle strategy.
func NewOracle() *Oracle {
	return &Oracle{flavor{
		dialect: dialect.Oracle,
		text:    "VARCHAR2(4000)",
		concat:  pipes,
		absent:  instr,
	}}
}

// SQLServer renders tree queries for SQL Server. The recursion limit is
// lifted; termination relies on the visited path.
type SQLServer struct{ flavor }

// NewSQLServer returns the SQL Server strategy.
func NewSQLServer() *SQLServer {
	return &SQLServer{flavor{
		dialect: dialect.SQLServer,
		text:    "NVARCHAR(4000)",
		concat:  plus,
		absent:  charindex,
		suffix:  "OPTION (MAXRECURSION 0)",
	}}
}

// H2 renders tree queries for H2.
type H2 struct{ flavor }

// NewH2 returns the H2 strategy.
func NewH2() *H2 {
	return &H2{flavor{
		dialect:   dialect.H2,
		recursive: true,
		text:      "VARCHAR(4000)",
		concat:    pipes,
		absent:    locate,
	}}
}

// SQLite renders tree queries for SQLite 3.25 and later.
type SQLite struct{ flavor }

// NewSQLite returns the SQLite strategy.
func NewSQLite() *SQLite {
	return &SQLite{flavor{
		dialect:   dialect.SQLite,
		recursive: true,
		text:      "TEXT",
		concat:    pipes,
		absent:    instr,
	}}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *dialect.Registry[Strategy]
)

// NewRegistry returns a registry holding the built-in strategies.
func NewRegistry() *dialect.Registry[Strategy] {
	return dialect.NewRegistry[Strategy]("cte",
		NewMySQL(),
		NewPostgres(),
		NewOracle(),
		NewSQLServer(),
		NewH2(),
		NewSQLite(),
	)
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *dialect.Registry[Strategy] {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

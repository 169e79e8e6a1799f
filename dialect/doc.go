// Package dialect defines the database dialects understood by treesql and
// the registry used to resolve a dialect-specific strategy.
//
// # Dialects
//
// A Dialect is a plain dispatch key. Six base dialects have their own
// strategies:
//
//	dialect.MySQL     = "mysql"
//	dialect.Postgres  = "postgres"
//	dialect.Oracle    = "oracle"
//	dialect.SQLServer = "sqlserver"
//	dialect.H2        = "h2"
//	dialect.SQLite    = "sqlite"
//
// Compatible engines (TiDB, OceanBase, PolarDB, Kingbase, GaussDB, DM) speak
// the syntax of a base dialect, reported by Family:
//
//	dialect.TiDB.Family() // dialect.MySQL
//	dialect.DM.Family()   // dialect.Oracle
//
// Parse accepts dialect names and common aliases, FromDSN detects the dialect
// of a JDBC URL or a Go driver DSN:
//
//	d, ok := dialect.FromDSN("jdbc:postgresql://localhost:5432/app")
//
// # Registry
//
// Registry holds strategies of one kind and resolves the first one whose
// Supports method accepts the dialect:
//
//	reg := dialect.NewRegistry[ddl.Strategy]("ddl", ddl.MySQL{}, ddl.Postgres{})
//	s, err := reg.Resolve(dialect.Postgres)
//
// Resolution never guesses. Unknown dialects fail with a
// *treesql.UnsupportedDialectError unless the caller opts into a fallback:
//
//	s, err := reg.Resolve(dialect.TiDB, dialect.FamilyFallback())
//	s, err := reg.Resolve(d, dialect.Fallback(dialect.MySQL))
package dialect

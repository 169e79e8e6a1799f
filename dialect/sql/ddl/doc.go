// Package ddl renders CREATE, ALTER and DROP statements for the supported
// dialects from dialect-neutral table definitions.
//
// Every dialect has a Strategy. Schema output is two-phase: all tables are
// created before any foreign key is added, so tables may reference each
// other in any order, including cycles. SQLite, which cannot add
// constraints to existing tables, declares them inline instead.
//
//	g, err := ddl.NewGenerator(dialect.Postgres)
//	if err != nil {
//		return err
//	}
//	stmts, err := g.Create(ctx)
//	if err != nil {
//		return err
//	}
//	fmt.Print(ddl.Script(stmts))
package ddl

// Package extract builds table definitions from outside the program: a
// live database inspected with atlas, or a YAML schema file.
//
//	desired, err := extract.Load(ctx, extract.YAMLFile("schema.yaml"))
//	...
//	current, err := extract.Load(ctx, extract.NewAtlas(db, dialect.Postgres))
//	...
//	stmts, err := gen.Migrate(current, desired)
package extract

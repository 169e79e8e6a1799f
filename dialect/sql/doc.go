// Package sql renders SQL literals and runs generated statements.
//
// # Templates
//
// Filters and anchors are written as SQL fragments with named placeholders.
// TemplateParser replaces each #{name} with a literal of the target dialect:
//
//	s, err := sql.ParseTemplate(dialect.Postgres, "status = #{status} AND id IN (#{ids})",
//	    map[string]any{"status": "active", "ids": []int{1, 2, 3}})
//	// status = 'active' AND id IN (1, 2, 3)
//
// Quoting follows the dialect: MySQL family dialects escape backslashes,
// SQL Server and Oracle render booleans as 1/0, Oracle prefixes timestamps
// with TIMESTAMP. A missing parameter fails with *treesql.MissingParameterError.
//
// # Drivers
//
// Driver wraps a database/sql connection for a dialect. QueryForList
// materializes a result as []Row and is the executor used by hierarchy queries,
// Exec runs DDL statements:
//
//	drv, err := sql.Open("sqlite", "file:tree.db")
//	rows, err := drv.QueryForList(ctx, "SELECT id, parent_id FROM category")
//
// StatsDriver counts statements and reports slow ones, DebugDriver logs every
// statement through log/slog. Session variables can be attached to a context
// with WithVar and are set before every statement on the same connection.
package sql

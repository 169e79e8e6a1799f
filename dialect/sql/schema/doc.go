// Package schema describes tables independently of any SQL dialect and
// tracks the foreign key dependencies between them.
//
// A Context is built once from a set of tables and validated on construction:
//
//	ctx, err := schema.NewContext(customers, orders)
//	ctx.Dependents("customers") // [orders]
//	ctx.TopologicalOrder()      // [customers orders]
//
// Diff compares two contexts and ValidateDiff reports which of the changes
// may lose data.
package schema

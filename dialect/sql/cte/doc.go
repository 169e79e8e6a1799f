// Package cte builds recursive common table expressions that walk a
// self-referencing table up to the ancestors of a set of anchor rows, and
// optionally down to their descendants.
//
// Every returned row carries tree_depth, its distance from the nearest
// anchor row, and tree_direction, "up" or "down". With Breadcrumb set it
// also carries tree_breadcrumb, the path from the root down to the row,
// such as "1/2/3". Rows are unique by id and ordered by depth, then id.
//
// Cycles in corrupted data are cut: a walk never visits a row twice.
//
//	rows, err := cte.NewEngine().Run(ctx, cte.Request{
//		Table:    "category",
//		ID:       "id",
//		ParentID: "parent_id",
//		Anchor: cte.WrapperContext{
//			Segment: "id = #{id}",
//			Params:  map[string]any{"id": 3},
//		},
//	}, dialect.Postgres, drv)
package cte

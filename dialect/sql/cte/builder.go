package cte

import (
	"strconv"
	"strings"

	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql"
)

// BreadcrumbSeparator joins the breadcrumb values, root first.
const BreadcrumbSeparator = "/"

// flavor holds the syntax a dialect needs for tree queries. Visited rows
// are tracked in a path string "/id1/id2/.../" and a row whose "/id/"
// already occurs in the path is not visited again, so cycles terminate.
type flavor struct {
	dialect dialect.Dialect
	// recursive reports whether WITH needs the RECURSIVE keyword.
	recursive bool
	// text is the type text values are cast to. Anchor and recursive
	// members must agree on it.
	text   string
	concat func(parts ...string) string
	// absent renders a condition true when needle does not occur in haystack.
	absent func(needle, haystack string) string
	// suffix is appended to the statement.
	suffix string
}

func (f flavor) Supports(d dialect.Dialect) bool { return d == f.dialect }

func (f flavor) Dialect() dialect.Dialect { return f.dialect }

// TreeUp returns the query selecting the anchor rows and their ancestors.
func (f flavor) TreeUp(q Query) (string, error) {
	return f.build(q, false)
}

// TreeUpAndDown returns the query selecting the anchor rows, their
// ancestors and their descendants.
func (f flavor) TreeUpAndDown(q Query) (string, error) {
	return f.build(q, true)
}

func (f flavor) build(q Query, down bool) (string, error) {
	if q.BreadcrumbColumn == "" {
		q.BreadcrumbColumn = q.ID
	}
	for _, name := range []string{q.Table, q.ID, q.ParentID, q.BreadcrumbColumn} {
		if err := sql.CheckIdentifier(name); err != nil {
			return "", err
		}
	}
	if q.Anchor = stripWhere(q.Anchor); q.Anchor == "" {
		q.Anchor = "1 = 1"
	}

	ctes := []string{f.walk(q, "tree_up", false)}
	nodes := "  SELECT tree_id, tree_depth, 'up' FROM tree_up"
	if down {
		ctes = append(ctes, f.walk(q, "tree_down", true))
		// Anchor rows are reported once, as part of the upward walk.
		nodes += "\n  UNION ALL\n  SELECT tree_id, tree_depth, 'down' FROM tree_down WHERE tree_depth > 0"
	}
	ctes = append(ctes,
		"tree_nodes (tree_id, tree_depth, tree_direction) AS (\n"+nodes+"\n)",
		"tree_ranked (tree_id, tree_depth, tree_direction, tree_rank) AS (\n"+
			"  SELECT tree_id, tree_depth, tree_direction,\n"+
			"    ROW_NUMBER() OVER (PARTITION BY tree_id ORDER BY tree_depth, CASE tree_direction WHEN 'up' THEN 0 ELSE 1 END)\n"+
			"  FROM tree_nodes\n)",
	)
	if q.Breadcrumb {
		ctes = append(ctes, f.crumb(q),
			"tree_crumbs (tree_id, tree_breadcrumb, tree_rank) AS (\n"+
				"  SELECT tree_start, tree_label, ROW_NUMBER() OVER (PARTITION BY tree_start ORDER BY tree_level DESC)\n"+
				"  FROM tree_crumb\n)",
		)
	}

	var b strings.Builder
	b.WriteString("WITH ")
	if f.recursive {
		b.WriteString("RECURSIVE ")
	}
	b.WriteString(strings.Join(ctes, ",\n"))
	b.WriteString("\nSELECT * FROM (\n  SELECT t.*, r.tree_depth, r.tree_direction")
	if q.Breadcrumb {
		b.WriteString(", b.tree_breadcrumb")
	}
	b.WriteString("\n  FROM " + q.Table + " t\n  JOIN tree_ranked r ON t." + q.ID + " = r.tree_id AND r.tree_rank = 1")
	if q.Breadcrumb {
		b.WriteString("\n  LEFT JOIN tree_crumbs b ON b.tree_id = t." + q.ID + " AND b.tree_rank = 1")
	}
	b.WriteString("\n) tree_result")
	if filter := stripWhere(q.Filter); filter != "" {
		b.WriteString("\nWHERE (" + filter + ")")
	}
	b.WriteString("\nORDER BY tree_depth, " + q.ID)
	if f.suffix != "" {
		b.WriteString("\n" + f.suffix)
	}
	return b.String(), nil
}

// walk renders one recursive member: upward joins each row to its parent,
// downward to its children.
func (f flavor) walk(q Query, name string, down bool) string {
	join := "n." + q.ID + " = w.tree_pid"
	if down {
		join = "n." + q.ParentID + " = w.tree_id"
	}
	return name + " (tree_id, tree_pid, tree_depth, tree_path) AS (\n" +
		"  SELECT t." + q.ID + ", t." + q.ParentID + ", 0, " + f.path("", "t", q.ID) + "\n" +
		"  FROM " + q.Table + " t\n" +
		"  WHERE (" + q.Anchor + ")\n" +
		"  UNION ALL\n" +
		"  SELECT n." + q.ID + ", n." + q.ParentID + ", w.tree_depth + 1, " + f.path("w.tree_path", "n", q.ID) + "\n" +
		"  FROM " + q.Table + " n\n" +
		"  JOIN " + name + " w ON " + join + "\n" +
		"  WHERE " + f.unvisited("w.tree_path", "n", q.ID) + f.bound("w.tree_depth", q.MaxDepth) + "\n)"
}

// crumb walks up from every selected row, prepending the labels of the
// ancestors. The deepest level reached holds the full breadcrumb. The walk
// ignores MaxDepth, which only limits the returned rows.
func (f flavor) crumb(q Query) string {
	label := f.concat(f.cast("n."+q.BreadcrumbColumn), "'"+BreadcrumbSeparator+"'", "c.tree_label")
	return "tree_crumb (tree_start, tree_id, tree_pid, tree_level, tree_label, tree_path) AS (\n" +
		"  SELECT r.tree_id, t." + q.ID + ", t." + q.ParentID + ", 0, " + f.cast("t."+q.BreadcrumbColumn) + ", " + f.path("", "t", q.ID) + "\n" +
		"  FROM " + q.Table + " t\n" +
		"  JOIN tree_ranked r ON t." + q.ID + " = r.tree_id\n" +
		"  WHERE r.tree_rank = 1\n" +
		"  UNION ALL\n" +
		"  SELECT c.tree_start, n." + q.ID + ", n." + q.ParentID + ", c.tree_level + 1, " + f.cast(label) + ", " + f.path("c.tree_path", "n", q.ID) + "\n" +
		"  FROM " + q.Table + " n\n" +
		"  JOIN tree_crumb c ON n." + q.ID + " = c.tree_pid\n" +
		"  WHERE " + f.unvisited("c.tree_path", "n", q.ID) + "\n)"
}

func (f flavor) cast(expr string) string {
	return "CAST(" + expr + " AS " + f.text + ")"
}

// path extends the visited path with the row's id. An empty prefix starts
// a new path.
func (f flavor) path(prefix, alias, id string) string {
	if prefix == "" {
		return f.cast(f.concat("'/'", f.cast(alias+"."+id), "'/'"))
	}
	return f.cast(f.concat(prefix, f.cast(alias+"."+id), "'/'"))
}

func (f flavor) unvisited(path, alias, id string) string {
	return f.absent(f.concat("'/'", f.cast(alias+"."+id), "'/'"), path)
}

func (f flavor) bound(depth string, max int) string {
	if max <= 0 {
		return ""
	}
	return " AND " + depth + " < " + strconv.Itoa(max)
}

func pipes(parts ...string) string { return strings.Join(parts, " || ") }

func plus(parts ...string) string { return strings.Join(parts, " + ") }

func concatFunc(parts ...string) string { return "CONCAT(" + strings.Join(parts, ", ") + ")" }

func instr(needle, haystack string) string {
	return "INSTR(" + haystack + ", " + needle + ") = 0"
}

func position(needle, haystack string) string {
	return "POSITION(" + needle + " IN " + haystack + ") = 0"
}

func charindex(needle, haystack string) string {
	return "CHARINDEX(" + needle + ", " + haystack + ") = 0"
}

func locate(needle, haystack string) string {
	return "LOCATE(" + needle + ", " + haystack + ") = 0"
}

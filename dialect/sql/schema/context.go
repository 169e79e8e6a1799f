package schema

import (
	"slices"
	"sync"
)

// Context is an immutable set of table definitions keyed by name, together
// with the foreign key dependency graph between them.
//
// The graph is computed once, on first use. A Context is never mutated:
// use With to derive a context with a changed table set.
type Context struct {
	tables []*Table
	byName map[string]*Table

	once  sync.Once
	deps  map[string][]string // table -> tables it has foreign keys into
	rdeps map[string][]string // table -> tables with foreign keys into it
}

// NewContext validates the tables and returns their context.
//
// Duplicate tables or columns and foreign keys on unknown columns fail with
// a *treesql.SchemaError. A foreign key into a table that is not part of the
// set fails with a *treesql.DanglingForeignKeyError. Several failures are
// reported together in a *treesql.AggregateError.
func NewContext(tables ...*Table) (*Context, error) {
	if err := ValidateSchema(tables).Err(); err != nil {
		return nil, err
	}
	c := &Context{
		tables: slices.Clone(tables),
		byName: make(map[string]*Table, len(tables)),
	}
	for _, t := range tables {
		c.byName[t.Name] = t
	}
	return c, nil
}

// MustContext is like NewContext but panics on error.
func MustContext(tables ...*Table) *Context {
	c, err := NewContext(tables...)
	if err != nil {
		panic(err)
	}
	return c
}

// With returns a new context holding the tables of c, with tables of the
// same name replaced and new ones appended.
func (c *Context) With(tables ...*Table) (*Context, error) {
	merged := slices.Clone(c.tables)
	for _, t := range tables {
		if t == nil {
			merged = append(merged, t)
			continue
		}
		if i := slices.IndexFunc(merged, func(m *Table) bool { return m.Name == t.Name }); i >= 0 {
			merged[i] = t
		} else {
			merged = append(merged, t)
		}
	}
	return NewContext(merged...)
}

// Len returns the number of tables.
func (c *Context) Len() int { return len(c.tables) }

// Tables returns the table definitions in the order they were given.
func (c *Context) Tables() []*Table {
	return slices.Clone(c.tables)
}

// Table returns the table with the given name.
func (c *Context) Table(name string) (*Table, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Names returns the table names in the order they were given.
func (c *Context) Names() []string {
	names := make([]string, len(c.tables))
	for i, t := range c.tables {
		names[i] = t.Name
	}
	return names
}

func (c *Context) init() {
	c.once.Do(func() {
		c.deps = make(map[string][]string, len(c.tables))
		c.rdeps = make(map[string][]string, len(c.tables))
		for _, t := range c.tables {
			c.deps[t.Name] = nil
		}
		for _, t := range c.tables {
			for _, ref := range t.References() {
				c.deps[t.Name] = append(c.deps[t.Name], ref)
				c.rdeps[ref] = append(c.rdeps[ref], t.Name)
			}
		}
		for name := range c.deps {
			slices.Sort(c.deps[name])
		}
		for name := range c.rdeps {
			slices.Sort(c.rdeps[name])
			c.rdeps[name] = slices.Compact(c.rdeps[name])
		}
	})
}

// Dependencies returns, for every table, the sorted names of the tables it
// has foreign keys into. A self-referencing table lists itself.
func (c *Context) Dependencies() map[string][]string {
	c.init()
	m := make(map[string][]string, len(c.deps))
	for k, v := range c.deps {
		m[k] = slices.Clone(v)
	}
	return m
}

// DependenciesOf returns the sorted names of the tables name has foreign keys into.
func (c *Context) DependenciesOf(name string) []string {
	c.init()
	return slices.Clone(c.deps[name])
}

// Dependents returns the sorted names of the tables that have a foreign key
// into the named table. A self-referencing table lists itself.
func (c *Context) Dependents(name string) []string {
	c.init()
	return slices.Clone(c.rdeps[name])
}

// TopologicalOrder returns all table names ordered so that every table comes
// after the tables it depends on. Tables of a foreign key cycle are grouped
// together in name order; self references are ignored.
func (c *Context) TopologicalOrder() []string {
	var order []string
	for _, scc := range c.components() {
		order = append(order, scc...)
	}
	return order
}

// Cycles returns the groups of tables that reference each other through a
// chain of foreign keys, each sorted by name. Self references are not cycles.
func (c *Context) Cycles() [][]string {
	var cycles [][]string
	for _, scc := range c.components() {
		if len(scc) > 1 {
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

// components returns the strongly connected components of the dependency
// graph, dependencies first (Tarjan). Traversal is in name order, so the
// result is deterministic.
func (c *Context) components() [][]string {
	c.init()
	names := make([]string, 0, len(c.deps))
	for name := range c.deps {
		names = append(names, name)
	}
	slices.Sort(names)

	var (
		index   = 0
		indices = make(map[string]int, len(names))
		lowlink = make(map[string]int, len(names))
		onStack = make(map[string]bool, len(names))
		stack   []string
		result  [][]string
		visit   func(string)
	)
	visit = func(v string) {
		indices[v], lowlink[v] = index, index
		index++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range c.deps[v] {
			if _, seen := indices[w]; !seen {
				visit(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			result = append(result, scc)
		}
	}
	for _, name := range names {
		if _, seen := indices[name]; !seen {
			visit(name)
		}
	}
	return result
}

// InCycle reports whether the tables a and b are distinct members of the
// same foreign key cycle.
func (c *Context) InCycle(a, b string) bool {
	if a == b {
		return false
	}
	for _, scc := range c.Cycles() {
		if slices.Contains(scc, a) && slices.Contains(scc, b) {
			return true
		}
	}
	return false
}

package schema

import "fmt"

// ChangeKind is the kind of a schema change.
type ChangeKind int

// Change kinds, in the order a migration applies them.
const (
	AddTable ChangeKind = iota + 1
	AddColumn
	ModifyColumn
	DropForeignKey
	AddForeignKey
	ModifyComment
	DropColumn
	DropTable
)

var changeNames = map[ChangeKind]string{
	AddTable:       "add table",
	AddColumn:      "add column",
	ModifyColumn:   "modify column",
	DropForeignKey: "drop foreign key",
	AddForeignKey:  "add foreign key",
	ModifyComment:  "modify comment",
	DropColumn:     "drop column",
	DropTable:      "drop table",
}

// String implements fmt.Stringer.
func (k ChangeKind) String() string {
	if s, ok := changeNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change is a single difference between two schemas. Table is always set,
// Column and ForeignKey depending on the kind. A ModifyComment change with
// a nil Column is a table comment change.
type Change struct {
	Kind       ChangeKind
	Table      *Table
	Column     *Column
	ForeignKey *ForeignKey
	// From is the current definition of a modified column.
	From       *Column
}

// String returns a short description of the change.
func (c Change) String() string {
	switch {
	case c.Column != nil:
		return fmt.Sprintf("%s %s.%s", c.Kind, c.Table.Name, c.Column.Name)
	case c.ForeignKey != nil:
		return fmt.Sprintf("%s %s", c.Kind, c.ForeignKey.Symbol(c.Table.Name))
	default:
		return fmt.Sprintf("%s %s", c.Kind, c.Table.Name)
	}
}

// Diff returns the changes that turn current into desired. Changes are
// grouped by kind in application order; within a kind they follow the
// table order of desired (or of current for drops).
func Diff(current, desired *Context) []Change {
	var groups = make(map[ChangeKind][]Change)
	add := func(c Change) { groups[c.Kind] = append(groups[c.Kind], c) }

	for _, d := range desired.Tables() {
		c, ok := current.Table(d.Name)
		if !ok {
			add(Change{Kind: AddTable, Table: d})
			for _, fk := range d.ForeignKeys {
				add(Change{Kind: AddForeignKey, Table: d, ForeignKey: fk})
			}
			continue
		}
		diffTable(c, d, add)
	}
	for _, c := range current.Tables() {
		if _, ok := desired.Table(c.Name); !ok {
			add(Change{Kind: DropTable, Table: c})
		}
	}

	var changes []Change
	for k := AddTable; k <= DropTable; k++ {
		changes = append(changes, groups[k]...)
	}
	return changes
}

func diffTable(current, desired *Table, add func(Change)) {
	for _, dc := range desired.Columns {
		cc, ok := current.Column(dc.Name)
		if !ok {
			add(Change{Kind: AddColumn, Table: desired, Column: dc})
			continue
		}
		if !sameColumn(cc, dc) {
			add(Change{Kind: ModifyColumn, Table: desired, Column: dc, From: cc})
		}
		if cc.Comment != dc.Comment {
			add(Change{Kind: ModifyComment, Table: desired, Column: dc, From: cc})
		}
	}
	for _, cc := range current.Columns {
		if _, ok := desired.Column(cc.Name); !ok {
			add(Change{Kind: DropColumn, Table: desired, Column: cc})
		}
	}
	if current.Comment != desired.Comment {
		add(Change{Kind: ModifyComment, Table: desired})
	}

	for _, cf := range current.ForeignKeys {
		df := findForeignKey(desired, cf.Symbol(current.Name))
		if df == nil || !sameForeignKey(cf, df) {
			add(Change{Kind: DropForeignKey, Table: current, ForeignKey: cf})
		}
	}
	for _, df := range desired.ForeignKeys {
		cf := findForeignKey(current, df.Symbol(desired.Name))
		if cf == nil || !sameForeignKey(cf, df) {
			add(Change{Kind: AddForeignKey, Table: desired, ForeignKey: df})
		}
	}
}

// sameColumn compares the column definitions, ignoring comments.
func sameColumn(a, b *Column) bool {
	return a.Type == b.Type &&
		a.Precision == b.Precision &&
		a.Scale == b.Scale &&
		a.Nullable == b.Nullable &&
		a.Default == b.Default &&
		a.PrimaryKey == b.PrimaryKey &&
		a.AutoIncrement == b.AutoIncrement
}

// sameForeignKey compares foreign keys that share a constraint name.
func sameForeignKey(a, b *ForeignKey) bool {
	return a.Column == b.Column &&
		a.RefTable == b.RefTable &&
		a.RefColumn == b.RefColumn &&
		a.OnDelete == b.OnDelete &&
		a.OnUpdate == b.OnUpdate
}

func findForeignKey(t *Table, symbol string) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		if fk.Symbol(t.Name) == symbol {
			return fk
		}
	}
	return nil
}

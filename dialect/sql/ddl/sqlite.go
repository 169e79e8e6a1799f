package ddl

import (
	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// SQLite renders SQLite DDL.
//
// SQLite cannot add or drop constraints of an existing table, so Schema
// declares foreign keys inline and enables their enforcement. SQLite
// resolves references lazily, so the order of the tables does not matter.
type SQLite struct{ base }

// NewSQLite returns the SQLite strategy.
func NewSQLite() *SQLite {
	return &SQLite{base{
		dialect: dialect.SQLite,
		open:    `"`,
		close:   `"`,
		types:   sqliteTypes,
	}}
}

// columnDef appends AUTOINCREMENT to an integer primary key.
func (s *SQLite) columnDef(c *schema.Column, pk, keys bool) (string, error) {
	def, err := s.base.columnDef(c, pk, keys)
	if err != nil {
		return "", err
	}
	if pk && keys && c.AutoIncrement {
		def += " AUTOINCREMENT"
	}
	return def, nil
}

func (s *SQLite) CreateTable(t *schema.Table) (string, error) {
	return s.createTable(t, s.columnDef)
}

func (s *SQLite) ModifyColumn(string, *schema.Column, *schema.Column) (string, error) {
	return "", s.unsupported("modify column")
}

func (s *SQLite) AddForeignKey(string, *schema.ForeignKey) (string, error) {
	return "", s.unsupported("add foreign key")
}

func (s *SQLite) DropForeignKey(string, *schema.ForeignKey) (string, error) {
	return "", s.unsupported("drop foreign key")
}

// AddComment returns nothing. SQLite has no comment statements.
func (s *SQLite) AddComment(*schema.Table) ([]string, error) {
	return nil, nil
}

func (s *SQLite) Schema(tables []*schema.Table) ([]string, error) {
	stmts := make([]string, 0, len(tables)+1)
	stmts = append(stmts, "PRAGMA foreign_keys = ON")
	for _, t := range tables {
		stmt, err := s.CreateTableWithReferences(t)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// CreateTableWithReferences returns the CREATE TABLE statement including
// the foreign key constraints of the table.
func (s *SQLite) CreateTableWithReferences(t *schema.Table) (string, error) {
	fks := make([]string, len(t.ForeignKeys))
	for i, fk := range t.ForeignKeys {
		if err := checkForeignKey(t.Name, fk); err != nil {
			return "", err
		}
		fks[i] = "CONSTRAINT " + s.Quote(fk.Symbol(t.Name)) + " " + s.references(fk, fk.OnDelete, fk.OnUpdate)
	}
	return s.createTable(t, s.columnDef, fks...)
}

func (s *SQLite) unsupported(op string) error {
	return treesql.NewUnsupportedOperationError(string(s.dialect), op, "the table must be recreated")
}

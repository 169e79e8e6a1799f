package ddl

import (
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// MySQL renders MySQL DDL. Comments are part of the table and column
// definitions, so AddComment alters both.
type MySQL struct{ base }

// NewMySQL returns the MySQL strategy.
func NewMySQL() *MySQL {
	return &MySQL{base{
		dialect:      dialect.MySQL,
		open:         "`",
		close:        "`",
		types:        mysqlTypes,
		identity:     "AUTO_INCREMENT",
		identityLast: true,
	}}
}

func (m *MySQL) ModifyColumn(table string, _, c *schema.Column) (string, error) {
	def, err := m.columnDef(c, false, true)
	if err != nil {
		return "", err
	}
	stmt := "ALTER TABLE " + m.Quote(table) + " MODIFY COLUMN " + def
	// MODIFY COLUMN replaces the whole definition, including the comment.
	if c.Comment != "" {
		stmt += " COMMENT " + m.literal(c.Comment)
	}
	return stmt, nil
}

// modifySetsComment reports that ModifyColumn already writes the comment.
func (m *MySQL) modifySetsComment() bool { return true }

func (m *MySQL) DropForeignKey(table string, fk *schema.ForeignKey) (string, error) {
	return "ALTER TABLE " + m.Quote(table) + " DROP FOREIGN KEY " + m.Quote(fk.Symbol(table)), nil
}

func (m *MySQL) AddComment(t *schema.Table) ([]string, error) {
	var stmts []string
	if t.Comment != "" {
		stmts = append(stmts, "ALTER TABLE "+m.Quote(t.Name)+" COMMENT = "+m.literal(t.Comment))
	}
	for _, c := range t.Columns {
		if c.Comment == "" {
			continue
		}
		stmt, err := m.ModifyColumn(t.Name, nil, c)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (m *MySQL) Schema(tables []*schema.Table) ([]string, error) {
	return TwoPhase(m, tables)
}

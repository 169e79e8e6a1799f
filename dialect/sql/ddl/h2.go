package ddl

import (
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// H2 renders H2 DDL.
type H2 struct{ base }

// NewH2 returns the H2 strategy.
func NewH2() *H2 {
	return &H2{base{
		dialect:  dialect.H2,
		open:     `"`,
		close:    `"`,
		types:    h2Types,
		identity: "GENERATED BY DEFAULT AS IDENTITY",
	}}
}

func (h *H2) ModifyColumn(table string, _, c *schema.Column) (string, error) {
	def, err := h.columnDef(c, false, false)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + h.Quote(table) + " ALTER COLUMN " + def, nil
}

func (h *H2) AddComment(t *schema.Table) ([]string, error) {
	return h.commentOn(t), nil
}

func (h *H2) Schema(tables []*schema.Table) ([]string, error) {
	return TwoPhase(h, tables)
}

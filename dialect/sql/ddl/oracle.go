package ddl

import (
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// Oracle renders Oracle DDL. Identity columns need Oracle 12c or later.
type Oracle struct{ base }

// NewOracle returns the Oracle strategy.
func NewOracle() *Oracle {
	return &Oracle{base{
		dialect:  dialect.Oracle,
		open:     `"`,
		close:    `"`,
		types:    oracleTypes,
		identity: "GENERATED BY DEFAULT AS IDENTITY",
	}}
}

// DropTable drops the table together with the constraints referencing it.
// Oracle has no IF EXISTS.
func (o *Oracle) DropTable(name string) string {
	return "DROP TABLE " + o.Quote(name) + " CASCADE CONSTRAINTS"
}

func (o *Oracle) AddColumn(table string, c *schema.Column) (string, error) {
	def, err := o.columnDef(c, false, true)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + o.Quote(table) + " ADD (" + def + ")", nil
}

// ModifyColumn states NULL or NOT NULL only when nullability changes.
// Oracle rejects a clause that matches the current state (ORA-01442,
// ORA-01451).
func (o *Oracle) ModifyColumn(table string, from, to *schema.Column) (string, error) {
	c := *to
	c.Nullable = true
	def, err := o.columnDef(&c, false, false)
	if err != nil {
		return "", err
	}
	switch {
	case from == nil:
		if !to.Nullable {
			def += " NOT NULL"
		}
	case from.Nullable && !to.Nullable:
		def += " NOT NULL"
	case !from.Nullable && to.Nullable:
		def += " NULL"
	}
	return "ALTER TABLE " + o.Quote(table) + " MODIFY (" + def + ")", nil
}

// AddForeignKey keeps only the delete actions Oracle knows. There is no
// ON UPDATE clause, and NO ACTION is the implicit delete rule.
func (o *Oracle) AddForeignKey(table string, fk *schema.ForeignKey) (string, error) {
	var onDelete schema.ReferenceOption
	switch fk.OnDelete {
	case schema.Cascade, schema.SetNull:
		onDelete = fk.OnDelete
	}
	return o.addForeignKey(table, fk, onDelete, "")
}

func (o *Oracle) AddComment(t *schema.Table) ([]string, error) {
	return o.commentOn(t), nil
}

func (o *Oracle) Schema(tables []*schema.Table) ([]string, error) {
	return TwoPhase(o, tables)
}

package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// A schema file lists tables either by name or by entity. Entity names are
// turned into table names the way ORMs do, e.g. OrderItem becomes order_items.
//
//	tables:
//	  - entity: Category
//	    comment: product categories
//	    columns:
//	      - {name: id, type: bigint, primary_key: true, auto_increment: true}
//	      - {name: parent_id, type: bigint, nullable: true}
//	      - {name: name, type: varchar, size: 64}
//	    foreign_keys:
//	      - {column: parent_id, ref_entity: Category, on_delete: cascade}
type (
	yamlFile struct {
		Tables []yamlTable `yaml:"tables"`
	}
	yamlTable struct {
		Name        string           `yaml:"name"`
		Entity      string           `yaml:"entity"`
		Comment     string           `yaml:"comment"`
		Columns     []yamlColumn     `yaml:"columns"`
		ForeignKeys []yamlForeignKey `yaml:"foreign_keys"`
	}
	yamlColumn struct {
		Name          string `yaml:"name"`
		Type          string `yaml:"type"`
		Size          int    `yaml:"size"`
		Precision     int    `yaml:"precision"`
		Scale         int    `yaml:"scale"`
		Nullable      bool   `yaml:"nullable"`
		Default       string `yaml:"default"`
		Comment       string `yaml:"comment"`
		PrimaryKey    bool   `yaml:"primary_key"`
		AutoIncrement bool   `yaml:"auto_increment"`
	}
	yamlForeignKey struct {
		Name      string `yaml:"name"`
		Column    string `yaml:"column"`
		RefTable  string `yaml:"ref_table"`
		RefEntity string `yaml:"ref_entity"`
		RefColumn string `yaml:"ref_column"`
		OnDelete  string `yaml:"on_delete"`
		OnUpdate  string `yaml:"on_update"`
	}
)

// YAML extracts tables from a YAML schema file.
type YAML struct {
	path string
	r    io.Reader
}

// YAMLFile returns an extractor reading the schema file at path.
func YAMLFile(path string) *YAML {
	return &YAML{path: path}
}

// YAMLReader returns an extractor reading a schema document from r.
func YAMLReader(r io.Reader) *YAML {
	return &YAML{path: "<reader>", r: r}
}

// Extract reads and converts the schema document.
func (y *YAML) Extract(context.Context) ([]*schema.Table, error) {
	r := y.r
	if r == nil {
		f, err := os.Open(y.path)
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		defer f.Close()
		r = f
	}
	tables, err := decodeYAML(r)
	if err != nil {
		return nil, fmt.Errorf("extract: %s: %w", y.path, err)
	}
	return tables, nil
}

// ParseYAML converts a schema document to tables.
func ParseYAML(data []byte) ([]*schema.Table, error) {
	return decodeYAML(bytes.NewReader(data))
}

// TableName returns the table name of an entity: the plural snake case form.
func TableName(entity string) string {
	return inflect.Pluralize(inflect.Underscore(entity))
}

func decodeYAML(r io.Reader) ([]*schema.Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc yamlFile
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", treesql.ErrInvalidSchema, err)
	}
	tables := make([]*schema.Table, 0, len(doc.Tables))
	for _, yt := range doc.Tables {
		t, err := yt.table()
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func (yt yamlTable) table() (*schema.Table, error) {
	name := yt.Name
	switch {
	case name != "" && yt.Entity != "":
		return nil, treesql.NewSchemaError(name, "", "both name and entity are set")
	case yt.Entity != "":
		name = TableName(yt.Entity)
	case name == "":
		return nil, treesql.NewSchemaError("", "", "table has no name")
	}
	t := schema.NewTable(name).SetComment(yt.Comment)
	for _, yc := range yt.Columns {
		typ, err := schema.ParseColumnType(yc.Type)
		if err != nil {
			return nil, treesql.NewSchemaError(name, yc.Name, err.Error())
		}
		precision := yc.Precision
		if yc.Size > 0 {
			precision = yc.Size
		}
		t.AddColumns(&schema.Column{
			Name:          yc.Name,
			Type:          typ,
			Precision:     precision,
			Scale:         yc.Scale,
			Nullable:      yc.Nullable,
			Default:       yc.Default,
			Comment:       yc.Comment,
			PrimaryKey:    yc.PrimaryKey,
			AutoIncrement: yc.AutoIncrement,
		})
	}
	for _, yf := range yt.ForeignKeys {
		fk, err := yf.foreignKey(name)
		if err != nil {
			return nil, err
		}
		t.AddForeignKeys(fk)
	}
	return t, nil
}

func (yf yamlForeignKey) foreignKey(table string) (*schema.ForeignKey, error) {
	ref := yf.RefTable
	if yf.RefEntity != "" {
		if ref != "" {
			return nil, treesql.NewSchemaError(table, yf.Column, "both ref_table and ref_entity are set")
		}
		ref = TableName(yf.RefEntity)
	}
	fk := &schema.ForeignKey{
		Name:      yf.Name,
		Column:    yf.Column,
		RefTable:  ref,
		RefColumn: yf.RefColumn,
	}
	if fk.RefColumn == "" {
		fk.RefColumn = "id"
	}
	var err error
	if yf.OnDelete != "" {
		if fk.OnDelete, err = schema.ParseReferenceOption(yf.OnDelete); err != nil {
			return nil, treesql.NewSchemaError(table, yf.Column, err.Error())
		}
	}
	if yf.OnUpdate != "" {
		if fk.OnUpdate, err = schema.ParseReferenceOption(yf.OnUpdate); err != nil {
			return nil, treesql.NewSchemaError(table, yf.Column, err.Error())
		}
	}
	return fk, nil
}

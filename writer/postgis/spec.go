package postgis

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/writer"
)

var columnTypes = map[string]string{
	"id":        "BIGINT",
	"lat":       "DOUBLE PRECISION",
	"lon":       "DOUBLE PRECISION",
	"user":      "TEXT",
	"uid":       "BIGINT",
	"version":   "INTEGER",
	"changeset": "BIGINT",
	"timestamp": "TEXT",
	"owner_id":  "BIGINT",
	"key":       "TEXT",
	"value":     "TEXT",
	"type":      "TEXT",
	"way_id":    "BIGINT",
	"node_id":   "BIGINT",
	"position":  "INTEGER",
}

// indexColumns are indexed after the import.
var indexColumns = map[string]bool{
	"id":       true,
	"owner_id": true,
	"way_id":   true,
	"node_id":  true,
}

type ColumnSpec struct {
	Name string
	Type string
}

func (col *ColumnSpec) AsSQL() string {
	return fmt.Sprintf("\"%s\" %s", col.Name, col.Type)
}

type TableSpec struct {
	Name     string
	FullName string
	Schema   string
	Columns  []ColumnSpec
}

func NewTableSpec(schema, prefix string, t writer.Table) *TableSpec {
	spec := TableSpec{
		Name:     t.Name,
		FullName: prefix + t.Name,
		Schema:   schema,
	}
	for _, name := range t.Columns {
		typ, ok := columnTypes[name]
		if !ok {
			typ = "TEXT"
		}
		spec.Columns = append(spec.Columns, ColumnSpec{name, typ})
	}
	return &spec
}

func (spec *TableSpec) DropTableSQL() string {
	return fmt.Sprintf(`DROP TABLE IF EXISTS "%s"."%s"`, spec.Schema, spec.FullName)
}

func (spec *TableSpec) CreateTableSQL() string {
	var cols []string
	for _, col := range spec.Columns {
		cols = append(cols, col.AsSQL())
	}
	return fmt.Sprintf(`CREATE TABLE "%s"."%s" (%s)`,
		spec.Schema,
		spec.FullName,
		strings.Join(cols, ", "),
	)
}

func (spec *TableSpec) CopySQL() string {
	var cols []string
	for _, col := range spec.Columns {
		cols = append(cols, col.Name)
	}
	return pq.CopyInSchema(spec.Schema, spec.FullName, cols...)
}

func (spec *TableSpec) IndexSQL() []string {
	var stmts []string
	for _, col := range spec.Columns {
		if !indexColumns[col.Name] {
			continue
		}
		stmts = append(stmts, fmt.Sprintf(`CREATE INDEX "%s_%s_idx" ON "%s"."%s" ("%s")`,
			spec.FullName, col.Name, spec.Schema, spec.FullName, col.Name))
	}
	return stmts
}

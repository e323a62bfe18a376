// Package validate checks shaped records against a declarative schema
// before they are written.
//
// A schema lists the checked columns of each table:
//
//	nodes:
//	  id: {type: integer, required: true}
//	  timestamp: {type: string, regex: '^\d{4}-'}
//
// Required values must not be empty. Empty values of optional columns
// are not checked.
package validate

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/shape"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/writer"
)

//go:embed schema.yml
var defaultSchema []byte

type FieldType string

const (
	Integer FieldType = "integer"
	Float   FieldType = "float"
	String  FieldType = "string"
)

type Field struct {
	Type     FieldType `yaml:"type"`
	Required bool      `yaml:"required"`
	Regex    string    `yaml:"regex"`

	column int
	re     *regexp.Regexp
}

type Schema map[string]map[string]*Field

// ValidationError describes the first failed check of a record.
type ValidationError struct {
	Table    string
	ID       int64
	Field    string
	Expected string
	Actual   interface{}
	Detail   string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s %d: field %s: expected %s, got %q", e.Table, e.ID, e.Field, e.Expected, fmt.Sprint(e.Actual))
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Load reads a schema file. An empty path returns the bundled schema.
func Load(path string) (Schema, error) {
	if path == "" {
		return Parse(defaultSchema)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading schema")
	}
	s, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "schema %s", path)
	}
	return s, nil
}

func Parse(b []byte) (Schema, error) {
	var s Schema
	if err := yaml.UnmarshalStrict(b, &s); err != nil {
		return nil, errors.Wrap(err, "parsing schema")
	}
	if err := s.prepare(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s Schema) prepare() error {
	columns := make(map[string][]string)
	for _, t := range writer.Tables {
		columns[t.Name] = t.Columns
	}
	for table, fields := range s {
		cols, ok := columns[table]
		if !ok {
			return errors.Errorf("unknown table %s", table)
		}
		for name, f := range fields {
			if f == nil {
				f = &Field{Type: String}
				fields[name] = f
			}
			f.column = indexOf(cols, name)
			if f.column < 0 {
				return errors.Errorf("unknown column %s.%s", table, name)
			}
			switch f.Type {
			case Integer, Float, String:
			case "":
				f.Type = String
			default:
				return errors.Errorf("%s.%s: unknown type %s", table, name, f.Type)
			}
			if f.Regex != "" {
				re, err := regexp.Compile(f.Regex)
				if err != nil {
					return errors.Wrapf(err, "%s.%s: regex", table, name)
				}
				f.re = re
			}
		}
	}
	return nil
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

type Validator struct {
	tables []checkedTable
}

type checkedTable struct {
	name   string
	fields []namedField
}

type namedField struct {
	name string
	*Field
}

// New returns a Validator that checks the fields of s in column order.
func New(s Schema) *Validator {
	v := &Validator{}
	for _, t := range writer.Tables {
		ct := checkedTable{name: t.Name}
		for _, col := range t.Columns {
			if f, ok := s[t.Name][col]; ok {
				ct.fields = append(ct.fields, namedField{col, f})
			}
		}
		v.tables = append(v.tables, ct)
	}
	return v
}

func (v *Validator) table(name string) *checkedTable {
	for i := range v.tables {
		if v.tables[i].name == name {
			return &v.tables[i]
		}
	}
	return nil
}

// Validate checks all records of one element and returns the first
// *ValidationError.
func (v *Validator) Validate(rec shape.Records) error {
	id := rec.ID()
	switch rec.Kind {
	case element.NODE:
		if rec.Node != nil {
			if err := v.check(writer.Nodes.Name, id, rec.Node.Row()); err != nil {
				return err
			}
		}
		return v.checkTags(writer.NodesTags.Name, id, rec.Tags)
	case element.WAY:
		if rec.Way != nil {
			if err := v.check(writer.Ways.Name, id, rec.Way.Row()); err != nil {
				return err
			}
		}
		for i := range rec.WayNodes {
			if err := v.check(writer.WaysNodes.Name, id, rec.WayNodes[i].Row()); err != nil {
				return err
			}
		}
		return v.checkTags(writer.WaysTags.Name, id, rec.Tags)
	}
	return nil
}

func (v *Validator) checkTags(table string, id int64, tags []shape.TagRecord) error {
	for i := range tags {
		if err := v.check(table, id, tags[i].Row()); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) check(table string, id int64, row []interface{}) error {
	t := v.table(table)
	if t == nil {
		return nil
	}
	for _, f := range t.fields {
		if f.column >= len(row) {
			continue
		}
		if detail, ok := f.check(row[f.column]); !ok {
			return &ValidationError{
				Table:    table,
				ID:       id,
				Field:    f.name,
				Expected: f.expected(),
				Actual:   row[f.column],
				Detail:   detail,
			}
		}
	}
	return nil
}

func (f *Field) expected() string {
	s := string(f.Type)
	if f.Required {
		s = "required " + s
	}
	if f.re != nil {
		s += " matching " + f.Regex
	}
	return s
}

func (f *Field) check(value interface{}) (string, bool) {
	var str string
	switch v := value.(type) {
	case int64, int:
		if f.Type == String {
			return "not a string", false
		}
		str = fmt.Sprint(v)
	case string:
		str = v
	case nil:
	default:
		return fmt.Sprintf("unsupported value type %T", value), false
	}

	if str == "" {
		if f.Required {
			return "empty value", false
		}
		return "", true
	}

	switch f.Type {
	case Integer:
		if _, err := strconv.ParseInt(str, 10, 64); err != nil {
			return "not an integer", false
		}
	case Float:
		if _, err := strconv.ParseFloat(str, 64); err != nil {
			return "not a float", false
		}
	}
	if f.re != nil && !f.re.MatchString(str) {
		return "no match", false
	}
	return "", true
}

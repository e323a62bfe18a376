// Package csv writes each table into a CSV file with a header row.
package csv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/writer"
)

type tableFile struct {
	f      *os.File
	buf    *bufio.Writer
	w      *csv.Writer
	record []string
}

func (t *tableFile) write(row []interface{}) error {
	t.record = t.record[:0]
	for _, v := range row {
		t.record = append(t.record, format(v))
	}
	return t.w.Write(t.record)
}

func (t *tableFile) close() error {
	t.w.Flush()
	err := t.w.Error()
	if err == nil {
		err = t.buf.Flush()
	}
	if cerr := t.f.Close(); err == nil {
		err = cerr
	}
	return err
}

type Sink struct {
	dir    string
	tables map[string]*tableFile
}

// New creates <table>.csv files in the directory of
// conf.ConnectionParams. Existing files are replaced.
func New(conf writer.Config) (writer.Sink, error) {
	dir := conf.ConnectionParams
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}
	s := &Sink{dir: dir, tables: make(map[string]*tableFile)}
	for _, table := range writer.Tables {
		if err := s.create(table); err != nil {
			s.Abort()
			return nil, err
		}
	}
	return s, nil
}

func (s *Sink) create(table writer.Table) error {
	path := filepath.Join(s.dir, table.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	buf := bufio.NewWriterSize(f, 64*1024)
	t := &tableFile{f: f, buf: buf, w: csv.NewWriter(buf)}
	s.tables[table.Name] = t
	if err := t.w.Write(table.Columns); err != nil {
		return errors.Wrapf(err, "writing header of %s", path)
	}
	return nil
}

func (s *Sink) Insert(table string, row []interface{}) error {
	t, ok := s.tables[table]
	if !ok {
		return errors.Errorf("unknown table %s", table)
	}
	if err := t.write(row); err != nil {
		return errors.Wrapf(err, "writing %s.csv", table)
	}
	return nil
}

func (s *Sink) Close() error {
	var first error
	for name, t := range s.tables {
		if err := t.close(); err != nil && first == nil {
			first = errors.Wrapf(err, "closing %s.csv", name)
		}
	}
	s.tables = nil
	return first
}

// Abort closes all files. Rows written so far are kept.
func (s *Sink) Abort() error {
	return s.Close()
}

func format(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func init() {
	writer.Register("csv", New)
}

// Package writer routes shaped records to the five output tables of a
// Sink.
package writer

import (
	"errors"
	"strings"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/shape"
)

type Table struct {
	Name    string
	Columns []string
}

var (
	Nodes     = Table{"nodes", shape.NodeFields}
	NodesTags = Table{"nodes_tags", shape.TagFields}
	Ways      = Table{"ways", shape.WayFields}
	WaysNodes = Table{"ways_nodes", shape.WayNodeFields}
	WaysTags  = Table{"ways_tags", shape.TagFields}
)

// Tables lists all output tables in the order they are created.
var Tables = []Table{Nodes, NodesTags, Ways, WaysNodes, WaysTags}

type Config struct {
	Type string
	// ConnectionParams is the output directory for csv and the
	// connection string for postgis.
	ConnectionParams string
}

// Sink stores rows. Rows have the column order of the table.
type Sink interface {
	Insert(table string, row []interface{}) error
	// Close flushes and finalizes all tables.
	Close() error
	// Abort releases all resources after an error. Written rows may or
	// may not be kept.
	Abort() error
}

var sinks map[string]func(Config) (Sink, error)

func init() {
	sinks = make(map[string]func(Config) (Sink, error))
}

func Register(name string, f func(Config) (Sink, error)) {
	sinks[name] = f
}

func Open(conf Config) (Sink, error) {
	newFunc, ok := sinks[conf.Type]
	if !ok {
		return nil, errors.New("unsupported sink type: " + conf.Type)
	}

	sink, err := newFunc(conf)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// ConnectionType returns the scheme of a connection string
// ("postgis" for "postgis://..."), or "" if there is none.
func ConnectionType(param string) string {
	parts := strings.SplitN(param, "://", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[0]
}

// Writer inserts the records of each element into the tables of a Sink
// and counts the rows.
type Writer struct {
	sink Sink
	rows map[string]int64
}

func New(sink Sink) *Writer {
	return &Writer{sink: sink, rows: make(map[string]int64)}
}

func (w *Writer) Write(rec shape.Records) error {
	switch rec.Kind {
	case element.NODE:
		if rec.Node != nil {
			if err := w.insert(Nodes.Name, rec.Node.Row()); err != nil {
				return err
			}
		}
		return w.insertTags(NodesTags.Name, rec.Tags)
	case element.WAY:
		if rec.Way != nil {
			if err := w.insert(Ways.Name, rec.Way.Row()); err != nil {
				return err
			}
		}
		for i := range rec.WayNodes {
			if err := w.insert(WaysNodes.Name, rec.WayNodes[i].Row()); err != nil {
				return err
			}
		}
		return w.insertTags(WaysTags.Name, rec.Tags)
	}
	return nil
}

func (w *Writer) insertTags(table string, tags []shape.TagRecord) error {
	for i := range tags {
		if err := w.insert(table, tags[i].Row()); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) insert(table string, row []interface{}) error {
	if err := w.sink.Insert(table, row); err != nil {
		return err
	}
	w.rows[table]++
	return nil
}

// Rows returns the number of rows written to table.
func (w *Writer) Rows(table string) int64 {
	return w.rows[table]
}

// NullSink discards all rows.
type NullSink struct{}

func (n *NullSink) Insert(string, []interface{}) error { return nil }
func (n *NullSink) Close() error                       { return nil }
func (n *NullSink) Abort() error                       { return nil }

func NewNullSink(conf Config) (Sink, error) {
	return &NullSink{}, nil
}

func init() {
	Register("null", NewNullSink)
}

// Package postgis loads the tables into PostgreSQL with COPY.
//
// All tables are dropped and recreated in the import schema (default
// "import", connection param schema=) with a prefix (default "osm_",
// connection param prefix=). Each table is loaded in its own
// transaction. Close commits all transactions and creates the indices,
// Abort rolls back.
package postgis

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/log"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/writer"
)

type SQLError struct {
	query         string
	originalError error
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s", e.originalError.Error(), e.query)
}

type SQLInsertError struct {
	SQLError
	data interface{}
}

func (e *SQLInsertError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s (%+v)", e.originalError.Error(), e.query, e.data)
}

type PostGIS struct {
	Db     *sql.DB
	Params string
	Schema string
	Prefix string
	Tables []*TableSpec
	txs    map[string]*tableTx
}

func New(conf writer.Config) (writer.Sink, error) {
	pg, err := newPostGIS(conf)
	if err != nil {
		return nil, err
	}
	if err := pg.Open(); err != nil {
		return nil, errors.Wrap(err, "connecting to PostgreSQL")
	}
	if err := pg.Init(); err != nil {
		pg.Db.Close()
		return nil, err
	}
	if err := pg.Begin(); err != nil {
		pg.Abort()
		return nil, err
	}
	return pg, nil
}

func newPostGIS(conf writer.Config) (*PostGIS, error) {
	params, schema, prefix, err := connectionParams(conf.ConnectionParams)
	if err != nil {
		return nil, errors.Wrap(err, "parsing connection params")
	}
	pg := &PostGIS{
		Params: params,
		Schema: schema,
		Prefix: prefix,
		txs:    make(map[string]*tableTx),
	}
	for _, t := range writer.Tables {
		pg.Tables = append(pg.Tables, NewTableSpec(schema, prefix, t))
	}
	return pg, nil
}

func (pg *PostGIS) Open() error {
	var err error

	pg.Db, err = sql.Open("postgres", pg.Params)
	if err != nil {
		return err
	}
	// check that the connection actually works
	err = pg.Db.Ping()
	if err != nil {
		pg.Db.Close()
		return err
	}
	return nil
}

func (pg *PostGIS) createSchema() error {
	if pg.Schema == "public" {
		return nil
	}
	sql := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, pg.Schema)
	if _, err := pg.Db.Exec(sql); err != nil {
		return &SQLError{sql, err}
	}
	return nil
}

// Init creates the schema and replaces all tables.
func (pg *PostGIS) Init() error {
	if err := pg.createSchema(); err != nil {
		return err
	}

	tx, err := pg.Db.Begin()
	if err != nil {
		return err
	}
	defer rollbackIfTx(&tx)
	for _, spec := range pg.Tables {
		for _, sql := range []string{spec.DropTableSQL(), spec.CreateTableSQL()} {
			if _, err := tx.Exec(sql); err != nil {
				return &SQLError{sql, err}
			}
		}
	}
	err = tx.Commit()
	if err != nil {
		return err
	}
	tx = nil
	return nil
}

// Begin starts one COPY transaction for each table.
func (pg *PostGIS) Begin() error {
	for _, spec := range pg.Tables {
		tt := newTableTx(spec)
		if err := tt.Begin(pg.Db); err != nil {
			return err
		}
		pg.txs[spec.Name] = tt
	}
	return nil
}

func (pg *PostGIS) Insert(table string, row []interface{}) error {
	tt, ok := pg.txs[table]
	if !ok {
		return errors.Errorf("unknown table %s", table)
	}
	return tt.Insert(row)
}

// Close commits all tables and creates the indices.
func (pg *PostGIS) Close() error {
	defer pg.Db.Close()
	for _, spec := range pg.Tables {
		tt, ok := pg.txs[spec.Name]
		if !ok {
			continue
		}
		if err := tt.Commit(); err != nil {
			pg.rollback()
			return err
		}
		delete(pg.txs, spec.Name)
	}
	return pg.createIndices()
}

func (pg *PostGIS) createIndices() error {
	defer log.Step("Creating indices")()
	for _, spec := range pg.Tables {
		for _, sql := range spec.IndexSQL() {
			if _, err := pg.Db.Exec(sql); err != nil {
				return &SQLError{sql, err}
			}
		}
	}
	return nil
}

func (pg *PostGIS) Abort() error {
	pg.rollback()
	return pg.Db.Close()
}

func (pg *PostGIS) rollback() {
	for name, tt := range pg.txs {
		tt.Rollback()
		delete(pg.txs, name)
	}
}

func init() {
	writer.Register("postgres", New)
	writer.Register("postgis", New)
}

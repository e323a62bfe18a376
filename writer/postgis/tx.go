package postgis

import (
	"database/sql"
)

type tableTx struct {
	Tx         *sql.Tx
	Spec       *TableSpec
	InsertStmt *sql.Stmt
	InsertSql  string
}

func newTableTx(spec *TableSpec) *tableTx {
	return &tableTx{Spec: spec, InsertSql: spec.CopySQL()}
}

func (tt *tableTx) Begin(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	tt.Tx = tx

	stmt, err := tt.Tx.Prepare(tt.InsertSql)
	if err != nil {
		tt.Rollback()
		return &SQLError{tt.InsertSql, err}
	}
	tt.InsertStmt = stmt
	return nil
}

func (tt *tableTx) Insert(row []interface{}) error {
	if _, err := tt.InsertStmt.Exec(row...); err != nil {
		return &SQLInsertError{SQLError{tt.InsertSql, err}, row}
	}
	return nil
}

// Commit flushes the COPY and commits the transaction.
func (tt *tableTx) Commit() error {
	if _, err := tt.InsertStmt.Exec(); err != nil {
		return &SQLError{tt.InsertSql, err}
	}
	if err := tt.InsertStmt.Close(); err != nil {
		return &SQLError{tt.InsertSql, err}
	}
	tt.InsertStmt = nil
	if err := tt.Tx.Commit(); err != nil {
		return err
	}
	tt.Tx = nil
	return nil
}

func (tt *tableTx) Rollback() {
	if tt.InsertStmt != nil {
		tt.InsertStmt.Close()
		tt.InsertStmt = nil
	}
	rollbackIfTx(&tt.Tx)
}

package database

import (
	"database/sql"
)

// DBTX is what a repository query runs against: the shared pool, or the
// transaction WithTx opens for multi-statement writes such as prayer marks,
// conversation creation and backup restores.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	GetDialect() Dialect
}

// Tx is an open transaction that rewrites placeholders like DB does
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// Begin opens a transaction; most callers want WithTx instead
func (db *DB) Begin() (*Tx, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, dialect: db.Dialect}, nil
}

func (db *DB) GetDialect() Dialect {
	return db.Dialect
}

func (tx *Tx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return tx.Tx.Query(tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) QueryRow(query string, args ...interface{}) *sql.Row {
	return tx.Tx.QueryRow(tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return tx.Tx.Exec(tx.dialect.RewriteQuery(query), args...)
}

// GetDialect lets repositories build upserts inside a transaction
func (tx *Tx) GetDialect() Dialect {
	return tx.dialect
}

package store

import "database/sql"

// DBTX is satisfied by both *sql.DB and *sql.Tx. Stores are constructed over
// a *sql.DB for standalone use; the task service rebinds them to a
// transaction (WithTx) so a state transition and its economy writes commit
// as one unit.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

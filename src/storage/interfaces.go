package storage

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// Execer is an interface for executing SQL statements
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ExecQuerier is satisfied by both *sql.DB and *sql.Tx, so the query helpers
// run the same inside and outside a transaction.
type ExecQuerier interface {
	Execer
	sqlscan.Querier
}

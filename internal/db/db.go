// Package db is the query layer shared by every domain package. It is
// written by hand in the shape sqlc would generate — a DBTX interface
// satisfied by both a pooled connection and an in-flight transaction, a
// Queries struct wrapping it, and one typed method per query — because
// the generated file itself never made it into this repository's history;
// every handler in the teacher codebase already assumes this shape.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn, and pgx.Tx, so callers
// can run queries against a pool, a tenant-scoped connection (search_path
// already set), or an open transaction without the query layer caring which.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries wraps a DBTX with typed query methods.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given executor.
func New(dbtx DBTX) *Queries {
	return &Queries{db: dbtx}
}

// WithTx returns a Queries instance bound to an open transaction, letting
// callers compose multiple statements atomically.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

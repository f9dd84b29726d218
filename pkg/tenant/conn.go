package tenant

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WithConn acquires a connection from pool, sets its search_path to schema,
// and runs fn against it, releasing the connection afterward. Used by
// worker-mode fanout loops (C2's tick and webhook tenant resolution, the
// worker's per-tenant refresh and queue-drain loops) that must address a
// specific tenant schema outside of an HTTP
// request's tenant.Middleware-managed connection.
func WithConn(ctx context.Context, pool *pgxpool.Pool, schema string, fn func(ctx context.Context, conn *pgxpool.Conn) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection for schema %s: %w", schema, err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT set_config('search_path', $1, false)", schema+", public"); err != nil {
		return fmt.Errorf("setting search_path to %s: %w", schema, err)
	}

	return fn(ctx, conn)
}

package storage

import "context"

// MustExec runs raw SQL against the repo's pool; tests use it to arrange rows
// the public API never writes.
func (pgr *PostgresRepo) MustExec(ctx context.Context, sql string, args ...any) {
	if _, err := pgr.pool.Exec(ctx, sql, args...); err != nil {
		panic(err)
	}
}

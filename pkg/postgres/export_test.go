package postgres

import "context"

// ExecForTest runs raw SQL for test fixtures
func ExecForTest(ctx context.Context, d *DB, sql string) error {
	_, err := d.pool.Exec(ctx, sql)
	return err
}

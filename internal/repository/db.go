package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface repositories run on. *pgxpool.Pool and pgx.Tx
// both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

func countRows(ctx context.Context, db DBTX, query string, args ...any) (int, error) {
	var total int
	err := db.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

// collect drains rows through scan, sized for a page of limit items.
func collect[T any](rows pgx.Rows, limit int, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()
	items := make([]T, 0, limit)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

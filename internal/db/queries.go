package db

import (
	"context"
	"database/sql"
	"iter"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/errors"
	"github.com/hpungsan/memo/internal/memo"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Insert appends a command and trims the log to capacity in one transaction.
// Returns the ID assigned to the new entry.
func Insert(ctx context.Context, db *sql.DB, cmd string, createdAt int64, capacity int) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewInsertFailure(err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO memos (cmd, created_at) VALUES (?, ?)`,
		cmd, createdAt,
	)
	if err != nil {
		return 0, errors.NewInsertFailure(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewInsertFailure(err)
	}

	if _, err := EnforceCapacity(ctx, tx, capacity); err != nil {
		return 0, errors.NewInsertFailure(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInsertFailure(err)
	}
	return id, nil
}

// EnforceCapacity deletes the oldest entries until at most capacity remain.
// Returns the number of entries removed. A no-op when already within capacity.
// Non-positive capacity falls back to config.DefaultCapacity.
func EnforceCapacity(ctx context.Context, q querier, capacity int) (int64, error) {
	if capacity <= 0 {
		capacity = config.DefaultCapacity
	}

	var count int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM memos`).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	excess := count - int64(capacity)
	if excess <= 0 {
		return 0, nil
	}

	res, err := q.ExecContext(ctx,
		`DELETE FROM memos WHERE id IN (SELECT id FROM memos ORDER BY id ASC LIMIT ?)`,
		excess,
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return removed, nil
}

// Count returns the number of stored entries.
func Count(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memos`).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// MostRecent returns the entry with the largest ID, or nil if the log is empty.
func MostRecent(ctx context.Context, db *sql.DB) (*memo.Entry, error) {
	return EntryAtOffset(ctx, db, 0)
}

// EntryAtOffset returns the entry at a 0-based position in ID-descending order.
// Returns nil (and no error) when offset is negative or past the end.
func EntryAtOffset(ctx context.Context, db *sql.DB, offset int) (*memo.Entry, error) {
	if offset < 0 {
		return nil, nil
	}

	row := db.QueryRowContext(ctx,
		`SELECT id, cmd, created_at FROM memos ORDER BY id DESC LIMIT 1 OFFSET ?`,
		offset,
	)

	var e memo.Entry
	err := row.Scan(&e.ID, &e.Cmd, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &e, nil
}

// ScanDescending yields entries most recent first.
// Each call runs a fresh query, so the sequence can be ranged over repeatedly.
// A query or scan failure is yielded once as the error value and ends the sequence.
func ScanDescending(ctx context.Context, db *sql.DB) iter.Seq2[memo.Entry, error] {
	return scan(ctx, db, `SELECT id, cmd, created_at FROM memos ORDER BY id DESC`)
}

// ScanAscending yields entries oldest first.
func ScanAscending(ctx context.Context, db *sql.DB) iter.Seq2[memo.Entry, error] {
	return scan(ctx, db, `SELECT id, cmd, created_at FROM memos ORDER BY id ASC`)
}

func scan(ctx context.Context, db *sql.DB, query string) iter.Seq2[memo.Entry, error] {
	return func(yield func(memo.Entry, error) bool) {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			yield(memo.Entry{}, errors.NewInternal(err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var e memo.Entry
			if err := rows.Scan(&e.ID, &e.Cmd, &e.CreatedAt); err != nil {
				yield(memo.Entry{}, errors.NewInternal(err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(memo.Entry{}, errors.NewInternal(err))
		}
	}
}

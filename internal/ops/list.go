package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/db"
	"github.com/hpungsan/memo/internal/errors"
	"github.com/hpungsan/memo/internal/memo"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Query string // optional, case-insensitive substring
	Limit int    // default: cfg.DefaultLimit, max: cfg.Capacity
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []memo.Item `json:"items"`
	Query string      `json:"query,omitempty"`
	Limit int         `json:"limit"`
}

// List returns the most recent entries whose command contains the query.
// Every entry consumes an index whether or not it matches, so item indexes
// always address the unfiltered log.
func List(ctx context.Context, database *sql.DB, cfg *config.Config, input ListInput) (*ListOutput, error) {
	limit := limitOf(cfg, input.Limit)
	matcher := memo.NewMatcher(input.Query)

	items := []memo.Item{}
	index := 0
	for e, err := range db.ScanDescending(ctx, database) {
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("list")
		}
		index++
		if !matcher.Match(e.Cmd) {
			continue
		}
		items = append(items, e.ToItem(index))
		if len(items) >= limit {
			break
		}
	}

	return &ListOutput{
		Items: items,
		Query: input.Query,
		Limit: limit,
	}, nil
}

// Dump returns the whole log, up to capacity, most recent first.
func Dump(ctx context.Context, database *sql.DB, cfg *config.Config) (*ListOutput, error) {
	return List(ctx, database, cfg, ListInput{Limit: capacityOf(cfg)})
}

// Resolve returns the entry at a 1-based relative index.
// Indexes below 1 or past the end of the log are NOT_FOUND.
func Resolve(ctx context.Context, database *sql.DB, index int) (*memo.Entry, error) {
	if index < 1 {
		return nil, errors.NewNotFound(index)
	}
	e, err := db.EntryAtOffset(ctx, database, index-1)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.NewNotFound(index)
	}
	return e, nil
}

package ops

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/db"
	"github.com/hpungsan/memo/internal/history"
)

// SaveOutput contains the result of a save attempt.
type SaveOutput struct {
	Saved  bool   `json:"saved"`
	ID     int64  `json:"id,omitempty"`
	Cmd    string `json:"cmd"`
	Reason string `json:"reason,omitempty"` // set when Saved is false
}

// MaybeSave inserts candidate unless it is blank or identical to the most
// recent entry. Only the single most recent entry is compared.
func MaybeSave(ctx context.Context, database *sql.DB, cfg *config.Config, candidate string) (*SaveOutput, error) {
	return saveAt(ctx, database, cfg, candidate, time.Now().Unix())
}

// Observe reads the last typed command from source and saves it with MaybeSave.
// A source with nothing to offer returns HISTORY_UNAVAILABLE.
func Observe(ctx context.Context, database *sql.DB, cfg *config.Config, source history.Source) (*SaveOutput, error) {
	cmd, err := source.LastCommand()
	if err != nil {
		return nil, err
	}
	return MaybeSave(ctx, database, cfg, cmd)
}

func saveAt(ctx context.Context, database *sql.DB, cfg *config.Config, candidate string, createdAt int64) (*SaveOutput, error) {
	if strings.TrimSpace(candidate) == "" {
		return &SaveOutput{Cmd: candidate, Reason: SkipEmpty}, nil
	}

	last, err := db.MostRecent(ctx, database)
	if err != nil {
		return nil, err
	}
	if last != nil && last.Cmd == candidate {
		return &SaveOutput{Cmd: candidate, Reason: SkipDuplicate}, nil
	}

	id, err := db.Insert(ctx, database, candidate, createdAt, capacityOf(cfg))
	if err != nil {
		return nil, err
	}
	slog.Debug("saved command", "id", id, "capacity", capacityOf(cfg))

	return &SaveOutput{Saved: true, ID: id, Cmd: candidate}, nil
}

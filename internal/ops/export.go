package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/db"
	"github.com/hpungsan/memo/internal/errors"
	"github.com/hpungsan/memo/internal/memo"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: <base>/exports/memo-<timestamp>.jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	ExportID   string `json:"export_id"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes the log to a JSONL file, oldest entry first.
// The file is written under a temporary name and renamed into place, so an
// existing export at the same path survives a failed run.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		dir, err := ExportsDir(cfg)
		if err != nil {
			return nil, err
		}
		exportPath = filepath.Join(dir, fmt.Sprintf("memo-%s%s", now.Format("2006-01-02T150405"), ExportExt))
	}
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	id, err := ulid.New(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate export id: %w", err))
	}
	exportID := id.String()

	tempPath := exportPath + "." + exportID + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	header := memo.ExportHeader{
		MemoExport:    true,
		SchemaVersion: memo.ExportSchemaVersion,
		ExportID:      exportID,
		ExportedAt:    now.Unix(),
	}
	if err := writeLine(file, header); err != nil {
		return nil, err
	}

	count := 0
	for e, err := range db.ScanAscending(ctx, database) {
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("export")
		}
		if err := writeLine(file, memo.EntryToExportRecord(e)); err != nil {
			return nil, err
		}
		count++
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink planted at the destination
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidArgument("export path is a symlink")
	}

	// Windows cannot rename over an existing file; keep the old export rather
	// than delete it first.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidArgument("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		ExportID:   exportID,
		Count:      count,
		ExportedAt: now.Unix(),
	}, nil
}

func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/errors"
	"github.com/hpungsan/memo/internal/memo"
)

// Import error codes reported per line.
const (
	ImportParseError    = "PARSE_ERROR"
	ImportInvalidRecord = "INVALID_RECORD"
	ImportReadError     = "READ_ERROR"
)

// maxImportLine bounds a single JSONL line; commands are short.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	ExportID string        `json:"export_id,omitempty"`
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a line that could not be imported.
type ImportError struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import appends the entries of a JSONL export in file order.
// Records go through the save path: capacity is enforced and a record equal
// to the current most recent entry is skipped. The original created_at is kept.
// Malformed lines are reported and skipped; storage errors abort the import.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidArgument) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	out := &ImportOutput{Errors: []ImportError{}}
	fail := func(line int, code, msg string) {
		out.Errors = append(out.Errors, ImportError{Line: line, Code: code, Message: msg})
		out.Skipped++
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record memo.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			fail(lineNum, ImportParseError, fmt.Sprintf("invalid JSON: %v", err))
			continue
		}

		if record.MemoExport {
			if record.SchemaVersion != memo.ExportSchemaVersion {
				return nil, errors.NewInvalidArgument(
					fmt.Sprintf("unsupported export schema version %q", record.SchemaVersion))
			}
			out.ExportID = record.ExportID
			continue
		}

		if record.Cmd == "" {
			fail(lineNum, ImportInvalidRecord, "missing cmd field")
			continue
		}

		createdAt := record.CreatedAt
		if createdAt <= 0 {
			createdAt = time.Now().Unix()
		}

		res, err := saveAt(ctx, database, cfg, record.Cmd, createdAt)
		if err != nil {
			return nil, err
		}
		if !res.Saved {
			out.Skipped++
			continue
		}
		out.Imported++
	}

	if err := scanner.Err(); err != nil {
		fail(lineNum, ImportReadError, fmt.Sprintf("failed to read file: %v", err))
	}

	return out, nil
}

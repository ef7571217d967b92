package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/memo/internal/clipboard"
	"github.com/hpungsan/memo/internal/errors"
)

// CopyOutput contains the result of the Copy operation.
type CopyOutput struct {
	Index  int    `json:"index"`
	Cmd    string `json:"cmd"`
	Copied bool   `json:"copied"`
	Via    string `json:"via,omitempty"`
}

// Copy resolves an index and puts the command on the clipboard.
// When no clipboard sink works, the output still carries Cmd so callers can
// print it, and the CLIPBOARD_UNAVAILABLE error is returned alongside.
func Copy(ctx context.Context, database *sql.DB, w clipboard.Writer, index int) (*CopyOutput, error) {
	e, err := Resolve(ctx, database, index)
	if err != nil {
		return nil, err
	}

	out := &CopyOutput{Index: index, Cmd: e.Cmd}
	via, err := w.Copy(ctx, e.Cmd)
	if err != nil {
		if !errors.Is(err, errors.ErrClipboardUnavailable) {
			err = errors.NewClipboardUnavailable(err)
		}
		return out, err
	}
	out.Copied = true
	out.Via = via
	return out, nil
}

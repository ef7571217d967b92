package ops

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/hpungsan/memo/internal/errors"
	"github.com/hpungsan/memo/internal/safety"
	"github.com/hpungsan/memo/internal/shell"
)

// Gate decides whether a resolved command may execute.
// Commands the classifier flags need the confirmer's approval.
type Gate struct {
	Classifier *safety.Classifier
	Confirmer  safety.Confirmer
}

// RunInput contains parameters for the Run operation.
type RunInput struct {
	Index int // required, 1-based
}

// RunOutput contains the result of the Run operation.
type RunOutput struct {
	Cmd       string `json:"cmd"`
	Dangerous bool   `json:"dangerous"`
	Rule      string `json:"rule,omitempty"`
	ExitCode  int    `json:"exit_code"`
}

// Run resolves an index, gates dangerous commands behind confirmation and
// executes the command. A declined confirmation returns DECLINED without
// executing. A non-zero exit from the command is not an error.
func Run(ctx context.Context, database *sql.DB, gate Gate, executor shell.Executor, input RunInput) (*RunOutput, error) {
	e, err := Resolve(ctx, database, input.Index)
	if err != nil {
		return nil, err
	}

	out := &RunOutput{Cmd: e.Cmd}

	classifier := gate.Classifier
	if classifier == nil {
		classifier = safety.Default()
	}
	if rule, ok := classifier.Match(e.Cmd); ok {
		out.Dangerous = true
		out.Rule = rule.Name
		if gate.Confirmer == nil || !gate.Confirmer.Confirm(e.Cmd) {
			slog.Info("declined dangerous command", "index", input.Index, "rule", rule.Name)
			return nil, errors.NewDeclined(e.Cmd)
		}
	}

	code, err := executor.Execute(ctx, e.Cmd)
	out.ExitCode = code
	if err != nil {
		return out, errors.NewInternal(err)
	}
	return out, nil
}

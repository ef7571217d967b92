package shell

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/hpungsan/memo/internal/config"
)

// Executor runs a command line and reports its exit code.
type Executor interface {
	Execute(ctx context.Context, cmd string) (int, error)
}

// ShellExecutor runs commands as `<Shell> -c <cmd>` with the given stdio.
type ShellExecutor struct {
	Shell  string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a ShellExecutor attached to the process's standard streams.
func New(shell string) *ShellExecutor {
	if shell == "" {
		shell = config.DefaultShell
	}
	return &ShellExecutor{
		Shell:  shell,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Execute blocks until the command finishes.
// A command that ran returns its exit code and a nil error, even when the code
// is non-zero. Termination by signal is reported as 1. An error is returned
// only when the shell could not be started; the code is then 1.
func (e *ShellExecutor) Execute(ctx context.Context, cmd string) (int, error) {
	shell := e.Shell
	if shell == "" {
		shell = config.DefaultShell
	}

	c := exec.CommandContext(ctx, shell, "-c", cmd)
	c.Stdin = e.Stdin
	c.Stdout = e.Stdout
	c.Stderr = e.Stderr

	err := c.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return 1, nil
	}
	return 1, fmt.Errorf("failed to start %s: %w", shell, err)
}

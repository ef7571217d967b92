// Package clipboard copies text to the system clipboard through a chain of sinks.
package clipboard

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	sysclip "github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/errors"
)

// Sink names reported by Copy for the non-program fallbacks.
const (
	SinkSystem = "system"
	SinkOSC52  = "osc52"
)

// Writer puts text on the clipboard and reports which sink accepted it.
type Writer interface {
	Copy(ctx context.Context, text string) (string, error)
}

// DefaultPrograms returns the candidate programs for goos, in probe order.
func DefaultPrograms(goos string) []config.ClipboardProgram {
	switch goos {
	case "darwin":
		return []config.ClipboardProgram{{Name: "pbcopy"}}
	case "windows":
		return []config.ClipboardProgram{{Name: "clip"}}
	default:
		return []config.ClipboardProgram{
			{Name: "wl-copy"},
			{Name: "xclip", Args: []string{"-selection", "clipboard"}},
			{Name: "xsel", Args: []string{"--clipboard", "--input"}},
		}
	}
}

// System tries each candidate program, then the atotto system clipboard,
// then an OSC 52 escape written to Terminal.
type System struct {
	Programs []config.ClipboardProgram

	// LookPath resolves a program name; a failed lookup skips the candidate.
	LookPath func(file string) (string, error)

	// Run pipes text to the resolved program.
	Run func(ctx context.Context, path string, args []string, text string) error

	// Fallback writes to the platform clipboard. Nil skips this sink.
	Fallback func(text string) error

	// OSC52 enables the terminal escape sink; Terminal receives the sequence.
	OSC52    bool
	Terminal io.Writer

	// Getenv selects tmux/screen passthrough for OSC 52.
	Getenv func(key string) string
}

// NewSystem builds the sink chain from configuration.
// terminal is the output stream for OSC 52; pass nil when it is not a TTY.
func NewSystem(cfg *config.Config, terminal io.Writer) *System {
	programs := cfg.ClipboardPrograms
	if len(programs) == 0 {
		programs = DefaultPrograms(runtime.GOOS)
	}

	s := &System{
		Programs: programs,
		LookPath: exec.LookPath,
		Run:      runProgram,
		OSC52:    cfg.ClipboardOSC52 && terminal != nil,
		Terminal: terminal,
		Getenv:   os.Getenv,
	}
	if !sysclip.Unsupported {
		s.Fallback = sysclip.WriteAll
	}
	return s
}

// Copy implements Writer.
func (s *System) Copy(ctx context.Context, text string) (string, error) {
	var failures []string

	for _, p := range s.Programs {
		if p.Name == "" || s.LookPath == nil || s.Run == nil {
			continue
		}
		path, err := s.LookPath(p.Name)
		if err != nil {
			continue
		}
		if err := s.Run(ctx, path, p.Args, text); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", p.Name, err))
			continue
		}
		return p.Name, nil
	}

	if s.Fallback != nil {
		err := s.Fallback(text)
		if err == nil {
			return SinkSystem, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", SinkSystem, err))
	}

	if s.OSC52 && s.Terminal != nil {
		_, err := s.sequence(text).WriteTo(s.Terminal)
		if err == nil {
			return SinkOSC52, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", SinkOSC52, err))
	}

	if len(failures) == 0 {
		return "", errors.NewClipboardUnavailable(nil)
	}
	return "", errors.NewClipboardUnavailable(stderrors.New(strings.Join(failures, "; ")))
}

func (s *System) sequence(text string) osc52.Sequence {
	seq := osc52.New(text)
	getenv := s.Getenv
	if getenv == nil {
		return seq
	}
	switch {
	case getenv("TMUX") != "":
		return seq.Tmux()
	case getenv("STY") != "":
		return seq.Screen()
	default:
		return seq
	}
}

func runProgram(ctx context.Context, path string, args []string, text string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// Package history reads the most recently typed command from shell history files.
package history

import (
	"bytes"
	"errors"
	"os"
	"strings"

	"github.com/hpungsan/memo/internal/config"
	memoerrors "github.com/hpungsan/memo/internal/errors"
)

// Source yields the last command the user typed.
type Source interface {
	LastCommand() (string, error)
}

// DefaultProgram is the invocation name skipped when scanning history.
const DefaultProgram = "memo"

// FileSource reads history files in order and returns the first usable command.
type FileSource struct {
	// Paths are candidate history files, tried in order. Missing files are skipped.
	Paths []string

	// Program is the name of this tool; its own invocations are never returned.
	Program string
}

// NewFileSource returns a FileSource over paths, or DefaultPaths when empty.
func NewFileSource(paths []string) *FileSource {
	if len(paths) == 0 {
		paths = DefaultPaths()
	}
	return &FileSource{Paths: paths, Program: DefaultProgram}
}

// DefaultPaths returns $HISTFILE (when set), ~/.zsh_history and ~/.bash_history.
func DefaultPaths() []string {
	var paths []string
	if hf := strings.TrimSpace(os.Getenv("HISTFILE")); hf != "" {
		paths = append(paths, hf)
	}
	return append(paths, "~/.zsh_history", "~/.bash_history")
}

// LastCommand implements Source.
func (s *FileSource) LastCommand() (string, error) {
	program := s.Program
	if program == "" {
		program = DefaultProgram
	}

	for _, p := range s.Paths {
		path, err := config.ExpandHome(p)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", memoerrors.NewHistoryUnavailable("cannot read " + path + ": " + err.Error())
		}
		if cmd, ok := LastFromBytes(data, program); ok {
			return cmd, nil
		}
	}
	return "", memoerrors.NewHistoryUnavailable("")
}

// LastFromBytes scans history content newest line first and returns the
// first non-empty command that is not an invocation of program.
// Invalid UTF-8 is replaced rather than rejected.
func LastFromBytes(data []byte, program string) (string, bool) {
	content := string(bytes.ToValidUTF8(data, []byte("\uFFFD")))
	lines := strings.Split(content, "\n")

	for i := len(lines) - 1; i >= 0; i-- {
		cmd := strings.TrimSpace(ParseLine(strings.TrimSuffix(lines[i], "\r")))
		if cmd == "" {
			continue
		}
		if IsSelf(cmd, program) {
			continue
		}
		return cmd, true
	}
	return "", false
}

// ParseLine strips a zsh extended-history prefix (": <ts>:<d>;") from line.
// Lines without the prefix are returned unchanged.
func ParseLine(line string) string {
	if rest, ok := strings.CutPrefix(line, ":"); ok {
		if _, after, found := strings.Cut(rest, ";"); found {
			return after
		}
	}
	return line
}

// IsSelf reports whether cmd invokes program itself.
func IsSelf(cmd, program string) bool {
	return cmd == program || strings.HasPrefix(cmd, program+" ")
}

// Static is a Source returning a fixed command; an empty command means none.
type Static string

// LastCommand implements Source.
func (s Static) LastCommand() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", memoerrors.NewHistoryUnavailable("")
	}
	return string(s), nil
}

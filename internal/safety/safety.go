// Package safety classifies recalled commands before they are executed.
//
// Classification is a literal pattern match over the command text. There is
// no shell parsing: a path component named "rm" is flagged, an aliased
// destructive command is not.
package safety

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Rule is a named pattern that marks a command as dangerous.
type Rule struct {
	Name    string
	Pattern string
}

// DefaultRules are the built-in destructive or privilege-escalating patterns.
var DefaultRules = []Rule{
	{Name: "rm", Pattern: `\brm\b`},
	{Name: "sudo", Pattern: `\bsudo\b`},
	{Name: "dd", Pattern: `\bdd\b`},
	{Name: "mkfs", Pattern: `\bmkfs`},
	{Name: "shutdown", Pattern: `\bshutdown\b`},
	{Name: "reboot", Pattern: `\breboot\b`},
	{Name: "poweroff", Pattern: `\bpoweroff\b`},
	{Name: "pipe-to-sh", Pattern: `\|\s*sh\b`},
}

type compiledRule struct {
	rule Rule
	re   *regexp.Regexp
}

// Classifier flags commands matching any of its rules.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles rules in order. The first matching rule wins in Match.
func NewClassifier(rules []Rule) (*Classifier, error) {
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid danger pattern %q: %w", r.Pattern, err)
		}
		c.rules = append(c.rules, compiledRule{rule: r, re: re})
	}
	return c, nil
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	c, err := NewClassifier(DefaultRules)
	if err != nil {
		panic(err)
	}
	return c
}

// WithPatterns returns a classifier over DefaultRules plus extra user patterns.
// Extra rules are named after their pattern.
func WithPatterns(extra []string) (*Classifier, error) {
	rules := make([]Rule, 0, len(DefaultRules)+len(extra))
	rules = append(rules, DefaultRules...)
	for _, p := range extra {
		rules = append(rules, Rule{Name: p, Pattern: p})
	}
	return NewClassifier(rules)
}

// IsDangerous reports whether cmd matches any rule.
func (c *Classifier) IsDangerous(cmd string) bool {
	_, ok := c.Match(cmd)
	return ok
}

// Match returns the first rule that matches cmd.
func (c *Classifier) Match(cmd string) (Rule, bool) {
	for _, r := range c.rules {
		if r.re.MatchString(cmd) {
			return r.rule, true
		}
	}
	return Rule{}, false
}

// Rules returns the classifier's rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.rule
	}
	return out
}

// Prompt is written before reading the confirmation answer.
const Prompt = "dangerous command, run? [y/N] "

// Confirmer asks the operator whether a dangerous command may run.
type Confirmer interface {
	Confirm(cmd string) bool
}

// PromptConfirmer reads a y/N answer from In after writing Prompt to Out.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm implements Confirmer.
func (p PromptConfirmer) Confirm(_ string) bool {
	return Confirm(p.In, p.Out)
}

// Confirm writes Prompt to w and reads one line from r.
// Only "y" or "yes" (any case, surrounding whitespace ignored) confirms;
// EOF, read errors and anything else decline.
func Confirm(r io.Reader, w io.Writer) bool {
	if w != nil {
		fmt.Fprint(w, Prompt)
	}
	if r == nil {
		return false
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

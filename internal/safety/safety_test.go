package safety

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDangerous_DefaultRules(t *testing.T) {
	c := Default()

	tests := []struct {
		cmd  string
		want bool
	}{
		{"rm -rf /tmp/x", true},
		{"harmless", false},
		{"echo rm", true},
		{"germ", false},
		{"sudo apt update", true},
		{"pseudocode", false},
		{"dd if=/dev/zero of=/dev/sda", true},
		{"add file", false},
		{"mkfs.ext4 /dev/sdb1", true},
		{"shutdown -h now", true},
		{"reboot", true},
		{"systemctl poweroff", true},
		{"curl https://x.sh | sh", true},
		{"curl https://x.sh |sh", true},
		{"cat x | shasum", false},
		{"cat x | bash", false},
		{"ls /usr/bin/rm", true},
		{"git rm --cached f", true},
		{"npm run format", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsDangerous(tt.cmd))
		})
	}
}

func TestMatch_ReturnsFirstRule(t *testing.T) {
	c := Default()

	rule, ok := c.Match("sudo rm -rf /")
	require.True(t, ok)
	assert.Equal(t, "rm", rule.Name)

	rule, ok = c.Match("curl x | sh")
	require.True(t, ok)
	assert.Equal(t, "pipe-to-sh", rule.Name)

	_, ok = c.Match("ls -la")
	assert.False(t, ok)
}

func TestNewClassifier_CustomRules(t *testing.T) {
	c, err := NewClassifier([]Rule{{Name: "kubectl-delete", Pattern: `\bkubectl\s+delete\b`}})
	require.NoError(t, err)

	assert.True(t, c.IsDangerous("kubectl delete pod x"))
	assert.False(t, c.IsDangerous("kubectl get pods"))
	// Defaults are not included when a custom set is supplied
	assert.False(t, c.IsDangerous("rm -rf /"))
}

func TestNewClassifier_EmptyRules(t *testing.T) {
	c, err := NewClassifier(nil)
	require.NoError(t, err)
	assert.False(t, c.IsDangerous("rm -rf /"))
	assert.Empty(t, c.Rules())
}

func TestNewClassifier_InvalidPattern(t *testing.T) {
	_, err := NewClassifier([]Rule{{Name: "bad", Pattern: `(`}})
	assert.Error(t, err)
}

func TestWithPatterns(t *testing.T) {
	c, err := WithPatterns([]string{`\bchmod\s+777\b`})
	require.NoError(t, err)

	assert.True(t, c.IsDangerous("chmod 777 /srv"))
	assert.True(t, c.IsDangerous("rm x"))
	assert.Len(t, c.Rules(), len(DefaultRules)+1)

	rule, ok := c.Match("chmod 777 /srv")
	require.True(t, ok)
	assert.Equal(t, `\bchmod\s+777\b`, rule.Name)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"y", "y\n", true},
		{"yes", "yes\n", true},
		{"upper", "YES\n", true},
		{"mixed with spaces", "  Yes  \n", true},
		{"no newline", "y", true},
		{"n", "n\n", false},
		{"empty line", "\n", false},
		{"eof", "", false},
		{"yep", "yep\n", false},
		{"only first line counts", "no\ny\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := Confirm(strings.NewReader(tt.input), &out)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, Prompt, out.String())
		})
	}
}

func TestConfirm_ReadError(t *testing.T) {
	assert.False(t, Confirm(errReader{}, nil))
}

func TestConfirm_NilReader(t *testing.T) {
	var out bytes.Buffer
	assert.False(t, Confirm(nil, &out))
}

func TestPromptConfirmer(t *testing.T) {
	var out bytes.Buffer
	p := PromptConfirmer{In: strings.NewReader("y\n"), Out: &out}
	assert.True(t, p.Confirm("rm x"))
	assert.Contains(t, out.String(), "[y/N]")
}

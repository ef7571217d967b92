package ops

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/hpungsan/memo/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy_HappyPath(t *testing.T) {
	database := setupDB(t)
	seed(t, database, "git status", "ls")

	clip := &fakeClipboard{via: "xclip"}
	out, err := Copy(context.Background(), database, clip, 2)
	require.NoError(t, err)
	assert.True(t, out.Copied)
	assert.Equal(t, "xclip", out.Via)
	assert.Equal(t, "git status", out.Cmd)
	assert.Equal(t, []string{"git status"}, clip.got)
}

func TestCopy_ClipboardUnavailableKeepsCmd(t *testing.T) {
	database := setupDB(t)
	seed(t, database, "make")

	clip := &fakeClipboard{err: stderrors.New("no display")}
	out, err := Copy(context.Background(), database, clip, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrClipboardUnavailable))
	require.NotNil(t, out)
	assert.False(t, out.Copied)
	assert.Equal(t, "make", out.Cmd)
}

func TestCopy_NotFound(t *testing.T) {
	database := setupDB(t)

	clip := &fakeClipboard{}
	_, err := Copy(context.Background(), database, clip, 1)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Empty(t, clip.got)
}

package ops

import (
	"context"
	"fmt"
	"testing"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/db"
	"github.com/hpungsan/memo/internal/errors"
	"github.com/hpungsan/memo/internal/history"
	"github.com/hpungsan/memo/internal/safety"
	"github.com/stretchr/testify/require"
)

// TestFullWorkflow exercises the command lifecycle:
// observe → dedup → list → filter → resolve → copy → run → trim
func TestFullWorkflow(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Capacity = 20

	// 1. Observe the same history twice; only one row
	for range 2 {
		_, err := Observe(ctx, database, cfg, history.Static("git status"))
		require.NoError(t, err)
	}
	for _, cmd := range []string{"ls -la", "git push", "rm -rf build"} {
		out, err := MaybeSave(ctx, database, cfg, cmd)
		require.NoError(t, err)
		require.True(t, out.Saved)
	}

	count, err := db.Count(ctx, database)
	require.NoError(t, err)
	require.Equal(t, 4, count)

	// 2. Filtered listing keeps full-order indexes
	listOut, err := List(ctx, database, cfg, ListInput{Query: "git"})
	require.NoError(t, err)
	require.Len(t, listOut.Items, 2)
	require.Equal(t, 2, listOut.Items[0].Index)
	require.Equal(t, 4, listOut.Items[1].Index)

	// 3. Indexes from the filtered view address the same entries
	e, err := Resolve(ctx, database, listOut.Items[1].Index)
	require.NoError(t, err)
	require.Equal(t, "git status", e.Cmd)

	// 4. Copy
	clip := &fakeClipboard{via: "pbcopy"}
	copyOut, err := Copy(ctx, database, clip, 2)
	require.NoError(t, err)
	require.Equal(t, "git push", copyOut.Cmd)

	// 5. Run a dangerous command, declined then confirmed
	executor := &fakeExecutor{}
	_, err = Run(ctx, database, Gate{Classifier: safety.Default(), Confirmer: &fakeConfirmer{}}, executor, RunInput{Index: 1})
	require.True(t, errors.Is(err, errors.ErrDeclined))
	require.Empty(t, executor.ran)

	runOut, err := Run(ctx, database, Gate{Classifier: safety.Default(), Confirmer: &fakeConfirmer{answer: true}}, executor, RunInput{Index: 1})
	require.NoError(t, err)
	require.Equal(t, "rm", runOut.Rule)
	require.Equal(t, []string{"rm -rf build"}, executor.ran)

	// 6. Overflow capacity; oldest entries go first
	for i := range 30 {
		_, err := MaybeSave(ctx, database, cfg, fmt.Sprintf("echo %d", i))
		require.NoError(t, err)
	}
	count, err = db.Count(ctx, database)
	require.NoError(t, err)
	require.Equal(t, 20, count)

	oldest, err := Resolve(ctx, database, 20)
	require.NoError(t, err)
	require.Equal(t, "echo 10", oldest.Cmd)

	_, err = Resolve(ctx, database, 21)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

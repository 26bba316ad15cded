package maintenance

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/sessiondeck/folderdeck/internal/capability"
	"github.com/sessiondeck/folderdeck/internal/folders"
)

func newPrunerStore(t *testing.T) *folders.Store {
	t.Helper()

	store, err := folders.NewStore(capability.NewMemoryStorage(), folders.WithSyncWrites())
	require.NoError(t, err)
	store.Load(t.Context())
	t.Cleanup(store.Close)
	return store
}

func TestPrunerRunOnceDropsStaleEntries(t *testing.T) {
	store := newPrunerStore(t)

	keep, err := store.CreateFolder(t.Context(), "Keep", "", nil)
	require.NoError(t, err)
	doomed, err := store.CreateFolder(t.Context(), "Doomed", "", nil)
	require.NoError(t, err)

	require.True(t, store.DeleteFolder(t.Context(), doomed.ID))

	pruner := NewPruner(store)
	require.Equal(t, 1, pruner.RunOnce(t.Context()))
	require.Equal(t, 0, pruner.RunOnce(t.Context()))
	require.True(t, store.IsExpanded(keep.ID))
}

func TestPrunerRunOnceWithoutStore(t *testing.T) {
	pruner := NewPruner(nil)
	require.Equal(t, 0, pruner.RunOnce(t.Context()))
	require.NoError(t, pruner.Start())
}

func TestPrunerScheduledRun(t *testing.T) {
	store := newPrunerStore(t)

	doomed, err := store.CreateFolder(t.Context(), "Doomed", "", nil)
	require.NoError(t, err)
	require.True(t, store.DeleteFolder(t.Context(), doomed.ID))

	scheduler := cron.New(cron.WithSeconds(), cron.WithLogger(cron.DiscardLogger))
	pruner := NewPruner(store, WithCron(scheduler), WithSchedule("* * * * * *"))
	require.NoError(t, pruner.Start())
	defer func() { <-pruner.Stop().Done() }()

	require.Eventually(t, func() bool {
		return !store.IsExpanded(doomed.ID)
	}, 3*time.Second, 50*time.Millisecond)
}

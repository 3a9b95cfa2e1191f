package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/store"
)

func newStore(t *testing.T) (*store.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestCheckDetectsNewRevision(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()
	w := New(path, store.KeyModuleList, s, logging.Discard())

	require.NoError(t, w.Prime(ctx))
	c, err := w.Check(ctx)
	require.NoError(t, err)
	assert.Nil(t, c, "no record yet")

	require.NoError(t, s.SaveModules(ctx, []model.Module{{ID: "a", Name: "a"}}))
	c, err = w.Check(ctx)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, store.KeyModuleList, c.Key)
	assert.NotEmpty(t, c.Revision)

	c, err = w.Check(ctx)
	require.NoError(t, err)
	assert.Nil(t, c, "same revision reported twice")
}

func TestCheckIgnoresOtherKeys(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveModules(ctx, nil))

	w := New(path, store.KeyModuleList, s, nil)
	require.NoError(t, w.Prime(ctx))

	require.NoError(t, s.SavePrivacySettings(ctx, model.DefaultPrivacySettings()))
	c, err := w.Check(ctx)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestRunEmitsOnWrite(t *testing.T) {
	s, path := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.SaveModules(ctx, nil))

	w := New(path, store.KeyModuleList, s, nil)
	changes := make(chan Change, 1)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, changes) }()

	// A second handle stands in for another process sharing the file.
	other, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer other.Close()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case c := <-changes:
			assert.Equal(t, store.KeyModuleList, c.Key)
			cancel()
			assert.NoError(t, <-done)
			return
		case <-tick.C:
			// Keep writing until the watcher is set up and sees one.
			require.NoError(t, other.SaveModules(ctx, []model.Module{{ID: "x", Name: "x"}}))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}

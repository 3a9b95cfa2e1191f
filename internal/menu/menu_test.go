package menu

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/model"
)

func mod(id, category string) model.Module {
	return model.Module{ID: id, Name: "name-" + id, Category: category, Enabled: true}
}

func TestRebuildGroupsSharedCategories(t *testing.T) {
	ctx := context.Background()
	host := NewMemoryHost()
	s := NewSynchronizer(host, WithLogger(logging.Discard()))

	mods := []model.Module{mod("a", "x"), mod("b", "x"), mod("c", "y")}
	require.NoError(t, s.Rebuild(ctx, mods))

	entries := host.Entries()
	require.Len(t, entries, 4)

	parent, ok := host.Get("x")
	require.True(t, ok)
	assert.Equal(t, "x", parent.Title)
	assert.True(t, parent.Enabled)
	assert.Empty(t, parent.ParentID)

	for _, id := range []string{"a", "b"} {
		e, ok := host.Get(id)
		require.True(t, ok)
		assert.Equal(t, "x", e.ParentID)
		assert.False(t, e.Enabled)
		assert.Equal(t, "name-"+id, e.Title)
		assert.Equal(t, []string{ContextSelection}, e.Contexts)
	}

	c, ok := host.Get("c")
	require.True(t, ok)
	assert.Empty(t, c.ParentID)
	assert.False(t, c.Enabled)

	_, ok = host.Get("y")
	assert.False(t, ok, "single-member category must not get a parent")

	// Parents are created before any module entry.
	assert.Equal(t, "x", entries[0].ID)
}

func TestRebuildBlankCategoryIsTopLevel(t *testing.T) {
	ctx := context.Background()
	host := NewMemoryHost()
	s := NewSynchronizer(host)

	require.NoError(t, s.Rebuild(ctx, []model.Module{mod("a", ""), mod("b", "")}))

	for _, id := range []string{"a", "b"} {
		e, ok := host.Get(id)
		require.True(t, ok)
		assert.Empty(t, e.ParentID)
	}
	assert.Len(t, host.Entries(), 2)
}

func TestRebuildReplacesPreviousMenu(t *testing.T) {
	ctx := context.Background()
	host := NewMemoryHost()
	s := NewSynchronizer(host)

	require.NoError(t, s.Rebuild(ctx, []model.Module{mod("a", "x"), mod("b", "x")}))
	s.UpdateForSelection(ctx, []model.Module{mod("a", "x"), mod("b", "x")}, []model.Module{mod("a", "x")}, "sel")

	require.NoError(t, s.Rebuild(ctx, []model.Module{mod("a", "x"), mod("c", "z")}))

	snap := s.Snapshot()
	assert.Len(t, snap.Items, 2)
	assert.Empty(t, snap.Enabled(), "rebuilt module entries start disabled")
	_, ok := host.Get("b")
	assert.False(t, ok)
	a, _ := host.Get("a")
	assert.Empty(t, a.ParentID)
}

type blockingHost struct {
	*MemoryHost
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *blockingHost) RemoveAll(ctx context.Context) error {
	h.once.Do(func() {
		close(h.entered)
		<-h.release
	})
	return h.MemoryHost.RemoveAll(ctx)
}

func TestConcurrentRebuildIsSkipped(t *testing.T) {
	ctx := context.Background()
	host := &blockingHost{
		MemoryHost: NewMemoryHost(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	s := NewSynchronizer(host)
	mods := []model.Module{mod("a", "x"), mod("b", "x"), mod("c", "y")}

	done := make(chan error, 1)
	go func() { done <- s.Rebuild(ctx, mods) }()

	<-host.entered
	assert.Equal(t, Rebuilding, s.State())
	err := s.Rebuild(ctx, []model.Module{mod("z", "q")})
	assert.ErrorIs(t, err, ErrRebuildInProgress)

	close(host.release)
	require.NoError(t, <-done)
	assert.Equal(t, Idle, s.State())

	reference := NewMemoryHost()
	require.NoError(t, NewSynchronizer(reference).Rebuild(ctx, mods))
	assert.Equal(t, reference.Entries(), host.Entries())
}

func TestUpdateForSelection(t *testing.T) {
	ctx := context.Background()
	mods := []model.Module{mod("a", "x"), mod("b", "x"), mod("c", "y")}

	setup := func(t *testing.T, opts ...Option) (*Synchronizer, *MemoryHost) {
		host := NewMemoryHost()
		s := NewSynchronizer(host, opts...)
		require.NoError(t, s.Rebuild(ctx, mods))
		return s, host
	}

	t.Run("matches enable entries", func(t *testing.T) {
		s, host := setup(t)
		s.UpdateForSelection(ctx, mods, []model.Module{mods[0], mods[2]}, "text")
		assert.ElementsMatch(t, []string{"a", "c"}, s.Snapshot().Enabled())
		a, _ := host.Get("a")
		assert.True(t, a.Enabled)
	})

	t.Run("empty selection disables everything", func(t *testing.T) {
		s, host := setup(t)
		s.UpdateForSelection(ctx, mods, mods, "text")
		s.UpdateForSelection(ctx, mods, mods, "")
		assert.Empty(t, s.Snapshot().Enabled())
		for _, e := range host.Entries() {
			if e.ID == "x" {
				assert.True(t, e.Enabled, "category parent is never disabled")
				continue
			}
			assert.False(t, e.Enabled, e.ID)
		}
	})

	t.Run("no matches disables everything", func(t *testing.T) {
		s, _ := setup(t)
		s.UpdateForSelection(ctx, mods, mods, "text")
		s.UpdateForSelection(ctx, mods, nil, "other")
		assert.Empty(t, s.Snapshot().Enabled())
	})

	// Non-matched entries are disabled on every selection so an entry
	// enabled for an earlier selection cannot stay enabled.
	t.Run("strict selection disables stale entries", func(t *testing.T) {
		s, _ := setup(t)
		s.UpdateForSelection(ctx, mods, []model.Module{mods[0]}, "first")
		s.UpdateForSelection(ctx, mods, []model.Module{mods[1]}, "second")
		assert.Equal(t, []string{"b"}, s.Snapshot().Enabled())
	})

	t.Run("legacy selection leaves stale entries", func(t *testing.T) {
		s, _ := setup(t, WithLegacySelection())
		s.UpdateForSelection(ctx, mods, []model.Module{mods[0]}, "first")
		s.UpdateForSelection(ctx, mods, []model.Module{mods[1]}, "second")
		assert.ElementsMatch(t, []string{"a", "b"}, s.Snapshot().Enabled())
	})
}

func TestUpdateToleratesMissingEntries(t *testing.T) {
	ctx := context.Background()
	host := NewMemoryHost()
	s := NewSynchronizer(host, WithLogger(logging.Discard()))
	mods := []model.Module{mod("a", "x"), mod("b", "y")}
	require.NoError(t, s.Rebuild(ctx, mods))

	// Unknown to the synchronizer.
	ghost := mod("ghost", "x")
	s.UpdateForSelection(ctx, append(mods, ghost), []model.Module{ghost}, "text")

	// Known to the synchronizer but gone from the host.
	require.NoError(t, host.RemoveAll(ctx))
	s.UpdateForSelection(ctx, mods, mods, "text")

	assert.Empty(t, s.Snapshot().Enabled())
}

type failingHost struct {
	*MemoryHost
	failRemove bool
}

func (h *failingHost) RemoveAll(ctx context.Context) error {
	if h.failRemove {
		return errors.New("host unavailable")
	}
	return h.MemoryHost.RemoveAll(ctx)
}

func TestFailedClearKeepsLastKnownGoodState(t *testing.T) {
	ctx := context.Background()
	host := &failingHost{MemoryHost: NewMemoryHost()}
	s := NewSynchronizer(host)
	mods := []model.Module{mod("a", "x"), mod("b", "x")}
	require.NoError(t, s.Rebuild(ctx, mods))
	before := s.Snapshot()

	host.failRemove = true
	err := s.Rebuild(ctx, []model.Module{mod("c", "z")})
	require.Error(t, err)
	assert.Equal(t, before.Items, s.Snapshot().Items)
	assert.Equal(t, Idle, s.State())

	// The synchronizer keeps working after the failure.
	host.failRemove = false
	require.NoError(t, s.Rebuild(ctx, []model.Module{mod("c", "z")}))
	assert.Len(t, s.Snapshot().Items, 1)
}

func TestFailedCreateIsLeftOut(t *testing.T) {
	ctx := context.Background()
	host := NewMemoryHost()
	s := NewSynchronizer(host, WithLogger(logging.Discard()))

	require.NoError(t, s.Rebuild(ctx, []model.Module{mod("a", ""), mod("a", ""), mod("b", "")}))
	snap := s.Snapshot()
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, "a", snap.Items[0].ID)
	assert.Equal(t, "b", snap.Items[1].ID)
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	host := NewMemoryHost()
	s := NewSynchronizer(host)
	mods := []model.Module{mod("a", "x"), mod("b", "x"), mod("c", "y")}
	require.NoError(t, s.Rebuild(ctx, mods))
	s.UpdateForSelection(ctx, mods, []model.Module{mods[2]}, "text")

	out, err := Render(s.Snapshot().Entries())
	require.NoError(t, err)
	assert.Contains(t, out, "[x] x")
	assert.Contains(t, out, "[ ] name-a")
	assert.Contains(t, out, "[x] name-c")
}

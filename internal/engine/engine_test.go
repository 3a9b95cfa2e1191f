package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/tako/internal/dispatch"
	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/menu"
	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/store"
)

type fixture struct {
	engine *Engine
	store  store.Store
	host   *menu.MemoryHost
	opener *dispatch.RecordingOpener
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	host := menu.NewMemoryHost()
	rec := &dispatch.RecordingOpener{}
	cfg.Host = host
	cfg.Opener = rec
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &fixture{engine: New(s, cfg), store: s, host: host, opener: rec}
}

func seed(t *testing.T, s store.Store, ps model.PrivacySettings, modules ...model.Module) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveModules(ctx, modules))
	require.NoError(t, s.SavePrivacySettings(ctx, ps))
	require.NoError(t, s.SaveTroubleshootSettings(ctx, model.DefaultTroubleshootSettings()))
}

var (
	ipRed = model.Module{
		ID: "ip", Name: "IP lookup", Category: "net", PAP: model.PAPRed, Enabled: true,
		RegexPatterns: []string{`^\d+\.\d+\.\d+\.\d+$`},
		URLs:          []string{"https://ip.test/{SELECTION_TEXT_AREA}"},
	}
	ipGreen = model.Module{
		ID: "ipg", Name: "IP notes", Category: "net", PAP: model.PAPGreen, Enabled: true,
		RegexPatterns: []string{`^\d+\.\d+\.\d+\.\d+$`},
		URLs:          []string{"https://notes.test/"},
	}
	cve = model.Module{
		ID: "cve", Name: "CVE", PAP: model.PAPGreen, Enabled: true,
		RegexPatterns: []string{`^CVE-\d{4}-\d+$`},
		URLs:          []string{"https://cve.test/"},
	}
	off = model.Module{
		ID: "off", Name: "Off", PAP: model.PAPGreen, Enabled: false,
		RegexPatterns: []string{`.*`},
		URLs:          []string{"https://off.test/"},
	}
)

func TestStorageChangedBuildsMenu(t *testing.T) {
	f := newFixture(t, Config{})
	seed(t, f.store, model.DefaultPrivacySettings(), ipRed, ipGreen, cve, off)
	ctx := context.Background()

	require.NoError(t, f.engine.StorageChanged(ctx))

	ids := make([]string, 0)
	for _, e := range f.host.Entries() {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{"net", "ip", "ipg", "cve"}, ids)

	e, ok := f.host.Get("ip")
	require.True(t, ok)
	assert.Equal(t, "net", e.ParentID)
	assert.False(t, e.Enabled)
}

func TestSelectAppliesPolicy(t *testing.T) {
	f := newFixture(t, Config{})
	seed(t, f.store, model.DefaultPrivacySettings(), ipRed, ipGreen, cve)
	ctx := context.Background()
	require.NoError(t, f.engine.StorageChanged(ctx))

	matched, err := f.engine.Select(ctx, "8.8.8.8")
	require.NoError(t, err)
	assert.Len(t, matched, 2)
	assert.ElementsMatch(t, []string{"ip", "ipg"}, f.engine.Menu().Enabled())

	matched, err = f.engine.Select(ctx, "192.168.0.10")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "ipg", matched[0].ID)
	assert.Equal(t, []string{"ipg"}, f.engine.Menu().Enabled())

	matched, err = f.engine.Select(ctx, "CVE-2021-44228")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, []string{"cve"}, f.engine.Menu().Enabled())

	matched, err = f.engine.Select(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, matched)
	assert.Empty(t, f.engine.Menu().Enabled())
}

func TestSelectLegacyKeepsPreviousMatches(t *testing.T) {
	f := newFixture(t, Config{LegacySelection: true})
	seed(t, f.store, model.DefaultPrivacySettings(), ipGreen, cve)
	ctx := context.Background()
	require.NoError(t, f.engine.StorageChanged(ctx))

	_, err := f.engine.Select(ctx, "8.8.8.8")
	require.NoError(t, err)
	_, err = f.engine.Select(ctx, "CVE-2021-44228")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ipg", "cve"}, f.engine.Menu().Enabled())
}

func TestSelectUsesCacheUntilStorageChanged(t *testing.T) {
	f := newFixture(t, Config{})
	seed(t, f.store, model.DefaultPrivacySettings(), cve)
	ctx := context.Background()
	require.NoError(t, f.engine.StorageChanged(ctx))

	_, err := f.engine.Select(ctx, "CVE-2020-0001")
	require.NoError(t, err)
	assert.True(t, f.engine.Store().Cached())

	// Written behind the cache's back, as another process would.
	require.NoError(t, f.store.SaveModules(ctx, []model.Module{ipGreen}))
	matched, err := f.engine.Select(ctx, "8.8.8.8")
	require.NoError(t, err)
	assert.Empty(t, matched)

	require.NoError(t, f.engine.StorageChanged(ctx))
	matched, err = f.engine.Select(ctx, "8.8.8.8")
	require.NoError(t, err)
	assert.Len(t, matched, 1)
	assert.Equal(t, []string{"ipg"}, f.engine.Menu().Enabled())
}

func TestStorageChangedRefreshesDebug(t *testing.T) {
	log := logging.Discard()
	f := newFixture(t, Config{Logger: log})
	seed(t, f.store, model.DefaultPrivacySettings(), cve)
	ctx := context.Background()

	require.NoError(t, f.engine.StorageChanged(ctx))
	assert.False(t, log.Enabled())

	require.NoError(t, f.store.SaveTroubleshootSettings(ctx, model.TroubleshootSettings{DebugMode: true}))
	require.NoError(t, f.engine.StorageChanged(ctx))
	assert.True(t, log.Enabled())
}

func TestStorageChangedWithoutModules(t *testing.T) {
	f := newFixture(t, Config{})
	err := f.engine.StorageChanged(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestActivate(t *testing.T) {
	f := newFixture(t, Config{})
	seed(t, f.store, model.DefaultPrivacySettings(), ipRed, ipGreen)
	ctx := context.Background()

	actions, err := f.engine.Activate(ctx, "ip", "8.8.8.8")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "https://ip.test/8.8.8.8", actions[0].URL)

	actions, err = f.engine.Activate(ctx, "ip", "10.1.1.1")
	require.NoError(t, err)
	assert.Empty(t, actions)

	assert.Equal(t, []string{"https://ip.test/8.8.8.8"}, f.opener.URLs())
}

func TestInstall(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	n, err := f.engine.Install(ctx)
	require.NoError(t, err)
	require.Positive(t, n)

	snap := f.engine.Menu()
	modules := 0
	for _, it := range snap.Items {
		if it.Kind == menu.KindModule {
			modules++
		}
	}
	assert.Equal(t, n, modules)

	matched, err := f.engine.Select(ctx, "CVE-2021-44228")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "CVE Lookup", matched[0].Name)
}

func TestRunHandlesEventsInOrder(t *testing.T) {
	f := newFixture(t, Config{})
	seed(t, f.store, model.DefaultPrivacySettings(), ipGreen, cve)

	events := make(chan Event, 4)
	events <- Event{Kind: EventStorageChanged}
	events <- Event{Kind: EventSelection, Text: "8.8.8.8"}
	events <- Event{Kind: EventActivate, ModuleID: "ipg", Text: "8.8.8.8"}
	events <- Event{Kind: EventKind(99)}
	close(events)

	var kinds []EventKind
	var failed int
	f.engine.after = func(ev Event, err error) {
		kinds = append(kinds, ev.Kind)
		if err != nil {
			failed++
		}
	}

	require.NoError(t, f.engine.Run(context.Background(), events))
	assert.Equal(t, []EventKind{EventStorageChanged, EventSelection, EventActivate, EventKind(99)}, kinds)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"ipg"}, f.engine.Menu().Enabled())
	assert.Equal(t, []string{"https://notes.test/8.8.8.8"}, f.opener.URLs())
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.engine.Run(ctx, make(chan Event)))
}

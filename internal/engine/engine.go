// Package engine wires the store, matcher, policy, menu synchronizer and
// dispatcher together and runs their event handlers one at a time.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/tako/internal/catalog"
	"github.com/rcliao/tako/internal/dispatch"
	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/matcher"
	"github.com/rcliao/tako/internal/menu"
	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/pattern"
	"github.com/rcliao/tako/internal/policy"
	"github.com/rcliao/tako/internal/store"
)

// EventKind identifies an event handled by Run.
type EventKind int

const (
	EventSelection EventKind = iota
	EventStorageChanged
	EventActivate
	EventInstall
)

func (k EventKind) String() string {
	switch k {
	case EventSelection:
		return "selection"
	case EventStorageChanged:
		return "storage_changed"
	case EventActivate:
		return "activate"
	case EventInstall:
		return "install"
	default:
		return "unknown"
	}
}

// Event is one input to the engine.
type Event struct {
	Kind     EventKind
	Text     string
	ModuleID string
}

// Config holds the engine's collaborators.
type Config struct {
	Host            menu.Host
	Opener          dispatch.Opener
	Logger          *logging.Logger
	LegacySelection bool

	// AfterEvent, when set, is called by Run after each handled event.
	AfterEvent func(ev Event, err error)
}

// Engine reacts to selections, storage changes and activations.
type Engine struct {
	store    *store.CachedStore
	matcher  *matcher.Matcher
	policy   *policy.Evaluator
	menu     *menu.Synchronizer
	dispatch *dispatch.Dispatcher
	log      *logging.Logger
	after    func(Event, error)
}

// New builds an engine over s. A nil Host defaults to a MemoryHost.
func New(s store.Store, cfg Config) *Engine {
	host := cfg.Host
	if host == nil {
		host = menu.NewMemoryHost()
	}

	cached := store.NewCachedStore(s)
	patterns := pattern.NewCache()
	ev := policy.New(patterns, cfg.Logger)

	opts := []menu.Option{menu.WithLogger(cfg.Logger)}
	if cfg.LegacySelection {
		opts = append(opts, menu.WithLegacySelection())
	}

	return &Engine{
		store:    cached,
		matcher:  matcher.New(patterns, cfg.Logger),
		policy:   ev,
		menu:     menu.NewSynchronizer(host, opts...),
		dispatch: dispatch.New(cached, ev, cfg.Opener, cfg.Logger),
		log:      cfg.Logger,
		after:    cfg.AfterEvent,
	}
}

// Store returns the engine's caching store.
func (e *Engine) Store() *store.CachedStore {
	return e.store
}

// Menu returns a copy of the current menu state.
func (e *Engine) Menu() menu.Snapshot {
	return e.menu.Snapshot()
}

// Select matches selectionText against the enabled modules, drops the
// matches the privacy settings do not admit and updates the menu. It
// returns the admitted modules.
func (e *Engine) Select(ctx context.Context, selectionText string) ([]model.Module, error) {
	all, err := e.store.ListEnabledModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}

	matched := e.matcher.MatchModules(selectionText, all)
	if len(matched) > 0 {
		ps, err := e.store.GetPrivacySettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("load privacy settings: %w", err)
		}
		matched = e.policy.Filter(matched, selectionText, *ps)
	}

	e.menu.UpdateForSelection(ctx, all, matched, selectionText)
	return matched, nil
}

// StorageChanged drops cached modules, reloads the debug flag and
// rebuilds the menu. A rebuild that is already running makes this a
// no-op.
func (e *Engine) StorageChanged(ctx context.Context) error {
	e.store.Invalidate()
	e.refreshDebug(ctx)

	modules, err := e.store.ListEnabledModules(ctx)
	if err != nil {
		return fmt.Errorf("load modules: %w", err)
	}

	err = e.menu.Rebuild(ctx, modules)
	if errors.Is(err, menu.ErrRebuildInProgress) {
		return nil
	}
	return err
}

func (e *Engine) refreshDebug(ctx context.Context) {
	ts, err := e.store.GetTroubleshootSettings(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.log.Error("loading troubleshoot settings", err)
		}
		e.log.SetDebug(false)
		return
	}
	e.log.SetDebug(ts.DebugMode)
}

// Activate resolves the menu entry moduleID for selectionText.
func (e *Engine) Activate(ctx context.Context, moduleID, selectionText string) ([]dispatch.Action, error) {
	return e.dispatch.Activate(ctx, moduleID, selectionText)
}

// Install seeds the default settings and catalog, then rebuilds the menu.
func (e *Engine) Install(ctx context.Context) (int, error) {
	n, installErr := catalog.Install(ctx, e.store, e.log)
	if err := e.StorageChanged(ctx); err != nil {
		return n, errors.Join(installErr, err)
	}
	return n, installErr
}

// Run handles events in arrival order until events is closed or ctx is
// done. Handler errors are logged and do not stop the loop.
func (e *Engine) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			err := e.Handle(ctx, ev)
			if err != nil {
				e.log.Error("handling event", err, "event", ev.Kind.String())
			}
			if e.after != nil {
				e.after(ev, err)
			}
		}
	}
}

// Handle runs the handler for a single event.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventSelection:
		_, err := e.Select(ctx, ev.Text)
		return err
	case EventStorageChanged:
		return e.StorageChanged(ctx)
	case EventActivate:
		_, err := e.Activate(ctx, ev.ModuleID, ev.Text)
		return err
	case EventInstall:
		_, err := e.Install(ctx)
		return err
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

// Package menu keeps a category grouped selection menu in step with the
// module configuration and the current text selection.
package menu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/model"
)

// ContextSelection shows an entry only when text is selected.
const ContextSelection = "selection"

var (
	// ErrRebuildInProgress is returned by a Rebuild that found another
	// rebuild running. The call had no effect and is not queued.
	ErrRebuildInProgress = errors.New("menu rebuild already in progress")

	// ErrNoEntry is returned by hosts for ids they do not hold.
	ErrNoEntry = errors.New("no such menu entry")
)

// Entry is a node of the host menu.
type Entry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	ParentID string   `json:"parent_id,omitempty"`
	Enabled  bool     `json:"enabled"`
	Contexts []string `json:"contexts"`
}

// Host is the platform menu the synchronizer drives.
type Host interface {
	Create(ctx context.Context, e Entry) error
	Update(ctx context.Context, id string, enabled bool) error
	RemoveAll(ctx context.Context) error
}

// State is the rebuild state of a Synchronizer.
type State int32

const (
	Idle State = iota
	Rebuilding
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

// Kind tells category parents from module leaves.
type Kind string

const (
	KindCategory Kind = "category"
	KindModule   Kind = "module"
)

// Item is the synchronizer's record of one created entry.
type Item struct {
	Entry
	Kind Kind `json:"kind"`
}

// Snapshot is a copy of the menu state.
type Snapshot struct {
	State State  `json:"-"`
	Items []Item `json:"items"`
}

// Entries returns the snapshot's entries in creation order.
func (s Snapshot) Entries() []Entry {
	return lo.Map(s.Items, func(it Item, _ int) Entry { return it.Entry })
}

// Enabled returns the ids of enabled module entries.
func (s Snapshot) Enabled() []string {
	return lo.FilterMap(s.Items, func(it Item, _ int) (string, bool) {
		return it.ID, it.Kind == KindModule && it.Enabled
	})
}

// Synchronizer owns the mapping from modules to menu entries.
type Synchronizer struct {
	host   Host
	log    *logging.Logger
	legacy bool

	state atomic.Int32

	// mu guards items/order and serializes host calls with their
	// bookkeeping.
	mu    sync.Mutex
	items map[string]*Item
	order []string
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Synchronizer) { s.log = l }
}

// WithLegacySelection leaves entries that are not part of a non-empty
// match set in whatever state they were, instead of disabling them.
func WithLegacySelection() Option {
	return func(s *Synchronizer) { s.legacy = true }
}

// NewSynchronizer returns an idle synchronizer with an empty menu state.
func NewSynchronizer(host Host, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		host:  host,
		items: make(map[string]*Item),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current rebuild state.
func (s *Synchronizer) State() State {
	return State(s.state.Load())
}

// Rebuild clears the host menu and recreates it from modules. Modules
// sharing a category with at least one other module are grouped under an
// enabled parent entry whose id and title are the category; every other
// module gets a top-level entry. Module entries start disabled.
//
// Only one rebuild runs at a time; a concurrent call returns
// ErrRebuildInProgress without touching the menu. If clearing the host
// fails the previous state is kept. A failed entry creation is logged
// and the entry left out.
func (s *Synchronizer) Rebuild(ctx context.Context, modules []model.Module) error {
	if !s.state.CompareAndSwap(int32(Idle), int32(Rebuilding)) {
		s.log.Debug("menu rebuild already running, skipping")
		return ErrRebuildInProgress
	}
	defer s.state.Store(int32(Idle))

	if err := s.clear(ctx); err != nil {
		s.log.Error("clearing menu", err)
		return fmt.Errorf("clear menu: %w", err)
	}

	counts := lo.CountValuesBy(modules, func(m model.Module) string { return m.Category })
	grouped := func(m model.Module) bool {
		return m.Category != "" && counts[m.Category] > 1
	}

	parents := make(map[string]bool)
	for _, m := range modules {
		if !grouped(m) || parents[m.Category] {
			continue
		}
		parents[m.Category] = true
		s.create(ctx, Item{
			Kind: KindCategory,
			Entry: Entry{
				ID:       m.Category,
				Title:    m.Category,
				Enabled:  true,
				Contexts: []string{ContextSelection},
			},
		})
	}

	for _, m := range modules {
		it := Item{
			Kind: KindModule,
			Entry: Entry{
				ID:       m.ID,
				Title:    m.Name,
				Enabled:  false,
				Contexts: []string{ContextSelection},
			},
		}
		if grouped(m) {
			it.ParentID = m.Category
		}
		s.create(ctx, it)
	}

	s.log.Debug("menu rebuilt", "modules", len(modules), "categories", len(parents))
	return nil
}

func (s *Synchronizer) clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.host.RemoveAll(ctx); err != nil {
		return err
	}
	s.items = make(map[string]*Item)
	s.order = nil
	return nil
}

func (s *Synchronizer) create(ctx context.Context, it Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.host.Create(ctx, it.Entry); err != nil {
		s.log.Error("creating menu entry", err, "id", it.ID, "title", it.Title)
		return
	}
	s.items[it.ID] = &it
	s.order = append(s.order, it.ID)
}

// UpdateForSelection sets the enabled flag of module entries for a new
// selection. Empty text or an empty match set disables every entry of
// allEnabled. Otherwise the matched entries are enabled and, unless the
// synchronizer was built WithLegacySelection, every other entry of
// allEnabled is disabled. Category parents are never touched. Ids the
// menu does not hold, including ones removed by a running rebuild, are
// ignored.
func (s *Synchronizer) UpdateForSelection(ctx context.Context, allEnabled, matched []model.Module, selectionText string) {
	if selectionText == "" || len(matched) == 0 {
		for _, m := range allEnabled {
			s.setEnabled(ctx, m.ID, false)
		}
		return
	}

	s.log.Info("selection matched modules", "selection", selectionText, "matched", len(matched))

	for _, m := range matched {
		s.setEnabled(ctx, m.ID, true)
	}
	if s.legacy {
		return
	}

	matchedIDs := lo.SliceToMap(matched, func(m model.Module) (string, bool) { return m.ID, true })
	for _, m := range allEnabled {
		if !matchedIDs[m.ID] {
			s.setEnabled(ctx, m.ID, false)
		}
	}
}

func (s *Synchronizer) setEnabled(ctx context.Context, id string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.Kind != KindModule {
		s.log.Debug("ignoring update for unknown menu entry", "id", id)
		return
	}

	err := s.host.Update(ctx, id, enabled)
	if errors.Is(err, ErrNoEntry) {
		s.log.Debug("menu entry vanished before update", "id", id)
		return
	}
	if err != nil {
		s.log.Error("updating menu entry", err, "id", id)
		return
	}
	it.Enabled = enabled
}

// Snapshot returns a copy of the current menu state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{State: s.State(), Items: make([]Item, 0, len(s.order))}
	for _, id := range s.order {
		it := *s.items[id]
		it.Contexts = append([]string(nil), it.Contexts...)
		snap.Items = append(snap.Items, it)
	}
	return snap
}

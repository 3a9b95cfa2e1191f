package menu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pterm/pterm"
)

// ErrDuplicateEntry is returned when an id is created twice.
var ErrDuplicateEntry = errors.New("duplicate menu entry")

// MemoryHost is an in-process Host. It is safe for concurrent use.
type MemoryHost struct {
	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
}

// NewMemoryHost returns an empty menu.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{entries: make(map[string]*Entry)}
}

func (h *MemoryHost) Create(_ context.Context, e Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.entries[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.ID)
	}
	if e.ParentID != "" {
		if _, ok := h.entries[e.ParentID]; !ok {
			return fmt.Errorf("parent %s: %w", e.ParentID, ErrNoEntry)
		}
	}
	e.Contexts = append([]string(nil), e.Contexts...)
	h.entries[e.ID] = &e
	h.order = append(h.order, e.ID)
	return nil
}

func (h *MemoryHost) Update(_ context.Context, id string, enabled bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNoEntry)
	}
	e.Enabled = enabled
	return nil
}

func (h *MemoryHost) RemoveAll(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = make(map[string]*Entry)
	h.order = nil
	return nil
}

// Entries returns the menu in creation order.
func (h *MemoryHost) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, *h.entries[id])
	}
	return out
}

// Get returns the entry with the given id.
func (h *MemoryHost) Get(id string) (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Render draws entries as a tree, parents before their children.
func Render(entries []Entry) (string, error) {
	children := make(map[string][]Entry)
	var roots []Entry
	for _, e := range entries {
		if e.ParentID == "" {
			roots = append(roots, e)
			continue
		}
		children[e.ParentID] = append(children[e.ParentID], e)
	}

	var node func(e Entry) pterm.TreeNode
	node = func(e Entry) pterm.TreeNode {
		n := pterm.TreeNode{Text: label(e)}
		for _, c := range children[e.ID] {
			n.Children = append(n.Children, node(c))
		}
		return n
	}

	root := pterm.TreeNode{Text: "menu"}
	for _, e := range roots {
		root.Children = append(root.Children, node(e))
	}
	return pterm.DefaultTree.WithRoot(root).Srender()
}

func label(e Entry) string {
	if e.Enabled {
		return "[x] " + e.Title
	}
	return "[ ] " + e.Title
}

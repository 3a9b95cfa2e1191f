package store

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/rcliao/tako/internal/model"
)

// CachedStore keeps the last fetched module collection in memory until
// Invalidate is called or the collection is saved through it. Settings
// are always read through.
type CachedStore struct {
	Store

	mu      sync.Mutex
	modules []model.Module
	valid   bool
}

// NewCachedStore wraps s.
func NewCachedStore(s Store) *CachedStore {
	return &CachedStore{Store: s}
}

// Invalidate drops the cached collection.
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules = nil
	c.valid = false
}

// Cached reports whether a collection is currently held.
func (c *CachedStore) Cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

func (c *CachedStore) ListAllModules(ctx context.Context) ([]model.Module, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid {
		modules, err := c.Store.ListAllModules(ctx)
		if err != nil {
			return nil, err
		}
		c.modules = modules
		c.valid = true
	}
	return slices.Clone(c.modules), nil
}

func (c *CachedStore) ListEnabledModules(ctx context.Context) ([]model.Module, error) {
	modules, err := c.ListAllModules(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(modules, func(m model.Module, _ int) bool { return m.Enabled }), nil
}

func (c *CachedStore) SaveModules(ctx context.Context, modules []model.Module) error {
	defer c.Invalidate()
	return c.Store.SaveModules(ctx, modules)
}

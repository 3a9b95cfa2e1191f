// Package store provides the module/settings storage interface and its
// SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/tako/internal/model"
)

// Record keys.
const (
	KeyModuleList           = "moduleList"
	KeyPrivacySettings      = "privacySettings"
	KeyTroubleshootSettings = "troubleshootSettings"
)

// ErrNotFound is returned when a record key has never been written.
var ErrNotFound = errors.New("not found")

// Store defines the persisted configuration accessor.
type Store interface {
	// ListEnabledModules returns the modules with Enabled set, in stored order.
	ListEnabledModules(ctx context.Context) ([]model.Module, error)

	// ListAllModules returns the whole stored collection.
	ListAllModules(ctx context.Context) ([]model.Module, error)

	GetPrivacySettings(ctx context.Context) (*model.PrivacySettings, error)
	GetTroubleshootSettings(ctx context.Context) (*model.TroubleshootSettings, error)

	// SaveModules replaces the stored collection.
	SaveModules(ctx context.Context, modules []model.Module) error

	SavePrivacySettings(ctx context.Context, s model.PrivacySettings) error
	SaveTroubleshootSettings(ctx context.Context, s model.TroubleshootSettings) error

	// Revision returns the id of the last write of key.
	Revision(ctx context.Context, key string) (string, error)

	// Close closes the store.
	Close() error
}

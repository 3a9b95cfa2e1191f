package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	_ "modernc.org/sqlite"

	"github.com/rcliao/tako/internal/model"
)

// SQLiteStore implements Store using SQLite. Every record is a JSON value
// under its key.
type SQLiteStore struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	entropy io.Reader
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		path:    dbPath,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) newRevision() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		key         TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		revision    TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) get(ctx context.Context, key string, dst any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (key, value, revision, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		     revision = excluded.revision, updated_at = excluded.updated_at`,
		key, string(b), s.newRevision(), now)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) ListAllModules(ctx context.Context) ([]model.Module, error) {
	var modules []model.Module
	if err := s.get(ctx, KeyModuleList, &modules); err != nil {
		return nil, err
	}
	if modules == nil {
		modules = []model.Module{}
	}
	return modules, nil
}

func (s *SQLiteStore) ListEnabledModules(ctx context.Context) ([]model.Module, error) {
	modules, err := s.ListAllModules(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(modules, func(m model.Module, _ int) bool { return m.Enabled }), nil
}

func (s *SQLiteStore) GetPrivacySettings(ctx context.Context) (*model.PrivacySettings, error) {
	var ps model.PrivacySettings
	if err := s.get(ctx, KeyPrivacySettings, &ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

func (s *SQLiteStore) GetTroubleshootSettings(ctx context.Context) (*model.TroubleshootSettings, error) {
	var ts model.TroubleshootSettings
	if err := s.get(ctx, KeyTroubleshootSettings, &ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

func (s *SQLiteStore) SaveModules(ctx context.Context, modules []model.Module) error {
	if modules == nil {
		modules = []model.Module{}
	}
	return s.put(ctx, KeyModuleList, modules)
}

func (s *SQLiteStore) SavePrivacySettings(ctx context.Context, ps model.PrivacySettings) error {
	if ps.ExcludedPatterns == nil {
		ps.ExcludedPatterns = []string{}
	}
	return s.put(ctx, KeyPrivacySettings, ps)
}

func (s *SQLiteStore) SaveTroubleshootSettings(ctx context.Context, ts model.TroubleshootSettings) error {
	return s.put(ctx, KeyTroubleshootSettings, ts)
}

func (s *SQLiteStore) Revision(ctx context.Context, key string) (string, error) {
	var rev string
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM records WHERE key = ?`, key).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read %s revision: %w", key, err)
	}
	return rev, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

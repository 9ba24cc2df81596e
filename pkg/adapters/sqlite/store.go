// Package sqlite provides a SQLite-backed blend store, for deployments that
// keep blends in a single database file instead of a directory.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	_ "modernc.org/sqlite"

	"github.com/anttttti/DuneBlend/pkg/adapters/sqlite/migrations"
	"github.com/anttttti/DuneBlend/pkg/core"
)

// Config holds the configuration for the SQLite store.
type Config struct {
	Path     string
	ReadOnly bool
	Logger   *slog.Logger
}

// Store persists blends in SQLite.
type Store struct {
	config Config

	mu sync.RWMutex
	db *sql.DB
}

// NewStore creates a store; the database is opened by Initialize.
func NewStore(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{config: config}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func millisToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}

// Initialize opens the database file and applies the embedded migrations.
func (s *Store) Initialize(ctx context.Context) error {
	path := strings.TrimSpace(s.config.Path)
	if path == "" {
		return errors.New("storage path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	s.db = db
	s.config.Logger.Debug("sqlite store opened", "path", cleanPath)
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

// Save inserts or replaces a blend.
func (s *Store) Save(ctx context.Context, filename string, data []byte) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := core.ValidateFilename(filename); err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO blends (filename, content, size, modified_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
		   content = excluded.content,
		   size = excluded.size,
		   modified_at = excluded.modified_at`,
		filename, data, len(data), toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save blend %s: %w", filename, err)
	}
	return nil
}

// Get returns the stored blend text.
func (s *Store) Get(ctx context.Context, filename string) ([]byte, error) {
	if err := core.ValidateFilename(filename); err != nil {
		return nil, err
	}
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var data []byte
	err = db.QueryRowContext(ctx, `SELECT content FROM blends WHERE filename = ?`, filename).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("get blend %s: %w", filename, err)
	}
	return data, nil
}

// List returns every blend sorted by filename.
func (s *Store) List(ctx context.Context) ([]core.BlendInfo, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT filename, size, modified_at FROM blends ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("list blends: %w", err)
	}
	defer rows.Close()

	list := []core.BlendInfo{}
	for rows.Next() {
		var (
			info       core.BlendInfo
			modifiedMs int64
		)
		if err := rows.Scan(&info.Filename, &info.Size, &modifiedMs); err != nil {
			return nil, fmt.Errorf("scan blend: %w", err)
		}
		info.Modified = millisToSeconds(modifiedMs)
		list = append(list, info)
	}
	return list, rows.Err()
}

// Delete removes a blend.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := core.ValidateFilename(filename); err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM blends WHERE filename = ?`, filename)
	if err != nil {
		return fmt.Errorf("delete blend %s: %w", filename, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, filename)
	}
	return nil
}

// DetectFeatures implements core.FeatureDetector.
func (s *Store) DetectFeatures(ctx context.Context) core.Features {
	return core.Features{
		CanSaveToServer:   !s.config.ReadOnly,
		CanLoadFromServer: true,
		ServerType:        core.ServerLocal,
	}
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Path     string `json:"path"`
	Open     bool   `json:"open"`
	ReadOnly bool   `json:"read_only"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{Path: s.config.Path, Open: s.db != nil, ReadOnly: s.config.ReadOnly}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite-store"
}

var (
	_ core.Store                  = (*Store)(nil)
	_ core.FeatureDetector        = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component     = (*Store)(nil)
)

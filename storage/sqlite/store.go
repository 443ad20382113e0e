// Package sqlite provides a SQLite implementation of the go-autosave-kit
// DraftStore, for drafts that must survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	stdSync "sync"
	"time"

	"github.com/c0deZ3R0/go-autosave-kit/autosave"
	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// Operation constants for consistent error reporting
const (
	opSaveDraft  = "sqlite.SaveDraft"
	opLoadDraft  = "sqlite.LoadDraft"
	opClearDraft = "sqlite.ClearDraft"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("store is closed")

// Config holds configuration options for the SQLiteDraftStore.
//
// Production-ready defaults are applied by DefaultConfig() including
// WAL mode for better concurrency and a bounded connection pool.
type Config struct {
	// DataSourceName is the connection string for the SQLite database.
	// Example: "file:drafts.db?_journal_mode=WAL"
	DataSourceName string

	// EnableWAL enables Write-Ahead Logging mode. When true,
	// "?_journal_mode=WAL" is appended to DataSourceName unless a
	// journal mode is already set.
	EnableWAL bool

	// TableName is the table drafts are stored in. Defaults to "drafts".
	TableName string

	// Connection pool settings.
	// Defaults: MaxOpen=25, MaxIdle=5, Lifetime=1h, IdleTime=5m
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (c *Config) setDefaults() {
	if c.TableName == "" {
		c.TableName = "drafts"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.EnableWAL {
		if !strings.Contains(c.DataSourceName, "?_journal_mode=") {
			c.DataSourceName += "?_journal_mode=WAL"
		}
	}
}

// DefaultConfig returns a Config with production-ready defaults.
func DefaultConfig(dataSourceName string) *Config {
	config := &Config{
		DataSourceName: dataSourceName,
		EnableWAL:      true,
	}
	config.setDefaults()
	return config
}

// SQLiteDraftStore implements the autosave.DraftStore interface for SQLite.
type SQLiteDraftStore struct {
	db        *sql.DB
	mu        stdSync.RWMutex
	closed    bool
	tableName string
}

// Compile-time check that SQLiteDraftStore satisfies the DraftStore interface
var _ autosave.DraftStore = (*SQLiteDraftStore)(nil)

// NewWithDataSource is a convenience constructor using DefaultConfig.
func NewWithDataSource(dataSourceName string) (*SQLiteDraftStore, error) {
	return New(DefaultConfig(dataSourceName))
}

// New creates a new SQLiteDraftStore from a Config.
func New(config *Config) (*SQLiteDraftStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	config.setDefaults()

	if config.DataSourceName == "" {
		return nil, fmt.Errorf("DataSourceName is required")
	}

	db, err := sql.Open("sqlite3", config.DataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	store := &SQLiteDraftStore{
		db:        db,
		tableName: config.TableName,
	}

	if err := store.setupSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database schema: %w", err)
	}

	return store, nil
}

// setupSchema creates the drafts table if it doesn't exist.
func (s *SQLiteDraftStore) setupSchema() error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS %s (
        document_key    TEXT PRIMARY KEY,
        document        TEXT NOT NULL,
        updated_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    `, s.tableName)
	_, err := s.db.Exec(query)
	return err
}

// SaveDraft upserts the draft document for the given key.
func (s *SQLiteDraftStore) SaveDraft(ctx context.Context, key string, doc autosave.Document) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return saveErrors.WrapOpComponent(err, opSaveDraft, "storage/sqlite")
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (document_key, document, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(document_key) DO UPDATE SET
            document = excluded.document,
            updated_at = CURRENT_TIMESTAMP
    `, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return saveErrors.WrapOpComponent(err, opSaveDraft, "storage/sqlite")
	}
	return nil
}

// LoadDraft retrieves the draft for the given key. The boolean reports
// whether a draft existed.
func (s *SQLiteDraftStore) LoadDraft(ctx context.Context, key string) (autosave.Document, bool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}

	query := fmt.Sprintf(`SELECT document FROM %s WHERE document_key = ?`, s.tableName)

	var data string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, saveErrors.WrapOpComponent(err, opLoadDraft, "storage/sqlite")
	}

	var doc autosave.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, false, saveErrors.WrapOpComponent(err, opLoadDraft, "storage/sqlite")
	}
	return doc, true, nil
}

// ClearDraft removes the draft for the given key. Clearing a missing
// draft is not an error.
func (s *SQLiteDraftStore) ClearDraft(ctx context.Context, key string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE document_key = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return saveErrors.WrapOpComponent(err, opClearDraft, "storage/sqlite")
	}
	return nil
}

// Close closes the underlying database. Subsequent operations return
// ErrStoreClosed.
func (s *SQLiteDraftStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteDraftStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/c0deZ3R0/go-autosave-kit/autosave"
)

// newTestStore connects to the database named by POSTGRES_TEST_DSN.
// Tests are skipped when the variable is unset.
func newTestStore(t *testing.T) *PostgresDraftStore {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	store, err := NewWithConnectionString(dsn)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresDraftStore_SaveLoadClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := "form-test-" + time.Now().Format("150405.000000000")
	defer store.ClearDraft(ctx, key)

	if _, ok, err := store.LoadDraft(ctx, key); err != nil || ok {
		t.Fatalf("expected no draft, ok=%v err=%v", ok, err)
	}

	doc := autosave.Document{"title": "draft", "body": "hello"}
	if err := store.SaveDraft(ctx, key, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, ok, err := store.LoadDraft(ctx, key)
	if err != nil || !ok {
		t.Fatalf("load failed, ok=%v err=%v", ok, err)
	}
	if loaded["title"] != "draft" || loaded["body"] != "hello" {
		t.Fatalf("unexpected draft: %v", loaded)
	}

	// Upsert replaces the previous draft.
	if err := store.SaveDraft(ctx, key, autosave.Document{"title": "v2"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	loaded, _, _ = store.LoadDraft(ctx, key)
	if loaded["title"] != "v2" {
		t.Fatalf("upsert not applied: %v", loaded)
	}

	if err := store.ClearDraft(ctx, key); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok, _ := store.LoadDraft(ctx, key); ok {
		t.Fatal("expected draft removed")
	}
}

func TestPostgresDraftStore_ConfigValidation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := New(&Config{}); err == nil {
		t.Fatal("expected error for empty connection string")
	}
	if _, err := NewWithDB(nil, "drafts"); err == nil {
		t.Fatal("expected error for nil connection")
	}
}

func TestPostgresDraftStore_ConfigDefaults(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost/drafts")
	if cfg.TableName != "drafts" {
		t.Fatalf("unexpected table name: %s", cfg.TableName)
	}
	if cfg.MaxOpenConns != 25 || cfg.MaxIdleConns != 5 {
		t.Fatalf("unexpected pool defaults: %d/%d", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != time.Hour || cfg.ConnMaxIdleTime != 5*time.Minute {
		t.Fatalf("unexpected lifetime defaults: %v/%v", cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)
	}
}

package autosave

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromBytes_YAML(t *testing.T) {
	data := []byte(`
enabled: true
debounce_delay: 500ms
periodic_interval: 10s
max_retries: 5
retry_delay: 1s
resolution: field_merge
`)

	fc, err := LoadConfigFromBytes(data, "yaml")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg, err := fc.Config()
	if err != nil {
		t.Fatalf("config resolution failed: %v", err)
	}
	if !cfg.Enabled {
		t.Fatal("expected enabled")
	}
	if cfg.DebounceDelay != 500*time.Millisecond {
		t.Fatalf("unexpected debounce delay: %v", cfg.DebounceDelay)
	}
	if cfg.PeriodicInterval != 10*time.Second {
		t.Fatalf("unexpected periodic interval: %v", cfg.PeriodicInterval)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("unexpected max retries: %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != time.Second {
		t.Fatalf("unexpected retry delay: %v", cfg.RetryDelay)
	}

	resolver, err := fc.Resolver()
	if err != nil {
		t.Fatalf("resolver failed: %v", err)
	}
	if _, ok := resolver.(*FieldMergeResolver); !ok {
		t.Fatalf("expected field merge resolver, got %T", resolver)
	}
}

func TestLoadConfigFromBytes_JSON(t *testing.T) {
	data := []byte(`{"enabled": false, "debounce_delay": "250ms"}`)

	fc, err := LoadConfigFromBytes(data, "json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	cfg, err := fc.Config()
	if err != nil {
		t.Fatalf("config resolution failed: %v", err)
	}
	if cfg.Enabled {
		t.Fatal("expected disabled")
	}
	if cfg.DebounceDelay != 250*time.Millisecond {
		t.Fatalf("unexpected debounce delay: %v", cfg.DebounceDelay)
	}

	// Unset fields fall back to defaults.
	def := DefaultConfig()
	if cfg.PeriodicInterval != def.PeriodicInterval {
		t.Fatalf("expected default periodic interval, got %v", cfg.PeriodicInterval)
	}
	if cfg.MaxRetries != def.MaxRetries {
		t.Fatalf("expected default max retries, got %d", cfg.MaxRetries)
	}
}

func TestLoadConfigFromBytes_UnsupportedFormat(t *testing.T) {
	if _, err := LoadConfigFromBytes([]byte("enabled: true"), "toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autosave.yaml")
	content := []byte("debounce_delay: 3s\nresolution: server\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	fc, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	cfg, err := fc.Config()
	if err != nil {
		t.Fatalf("config resolution failed: %v", err)
	}
	if cfg.DebounceDelay != 3*time.Second {
		t.Fatalf("unexpected debounce delay: %v", cfg.DebounceDelay)
	}

	if _, err := LoadConfigFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		fc   FileConfig
	}{
		{"bad duration", FileConfig{DebounceDelay: "soon"}},
		{"zero debounce", FileConfig{DebounceDelay: "0s"}},
		{"negative retry delay", FileConfig{RetryDelay: "-1s"}},
		{"negative max retries", FileConfig{MaxRetries: intPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fc.Config(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestFileConfig_UnknownResolution(t *testing.T) {
	fc := FileConfig{Resolution: "coin_flip"}
	if _, err := fc.Resolver(); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if _, err := fc.Options(); err == nil {
		t.Fatal("expected Options to propagate the error")
	}
}

func TestFileConfig_Options(t *testing.T) {
	fc := FileConfig{DebounceDelay: "50ms", Resolution: "local"}
	opts, err := fc.Options()
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected config and resolver options, got %d", len(opts))
	}

	engine, err := NewEngine(Document{}, newMockClient(), opts...)
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	defer engine.Close()
	if engine.cfg.DebounceDelay != 50*time.Millisecond {
		t.Fatalf("option not applied: %v", engine.cfg.DebounceDelay)
	}
	if _, ok := engine.resolver.(*KeepLocalResolver); !ok {
		t.Fatalf("expected keep-local resolver, got %T", engine.resolver)
	}
}

func intPtr(n int) *int { return &n }

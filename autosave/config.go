package autosave

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
)

// FileConfig is the on-disk representation of engine settings, loadable
// from YAML or JSON. Durations are strings in time.ParseDuration form
// ("2s", "500ms"). Zero-valued fields fall back to DefaultConfig.
type FileConfig struct {
	Enabled          *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	DebounceDelay    string `json:"debounce_delay,omitempty" yaml:"debounce_delay,omitempty"`
	PeriodicInterval string `json:"periodic_interval,omitempty" yaml:"periodic_interval,omitempty"`
	MaxRetries       *int   `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	RetryDelay       string `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty"`

	// Resolution selects an automatic conflict resolution strategy:
	// "server", "local", "field_merge", or "" for manual resolution.
	Resolution string `json:"resolution,omitempty" yaml:"resolution,omitempty"`
}

// LoadConfigFromFile reads a FileConfig from a YAML or JSON file,
// detecting the format from the extension.
func LoadConfigFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, saveErrors.NewStorageError(saveErrors.OpConfigLoad,
			fmt.Errorf("failed to read config file %s: %w", path, err))
	}
	return LoadConfigFromBytes(data, detectFormat(path))
}

// LoadConfigFromBytes parses a FileConfig from raw bytes in the given
// format ("yaml" or "json").
func LoadConfigFromBytes(data []byte, format string) (*FileConfig, error) {
	var fc FileConfig

	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, saveErrors.NewValidationError(saveErrors.OpConfigLoad,
				fmt.Errorf("failed to parse YAML config: %w", err))
		}
	case "json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, saveErrors.NewValidationError(saveErrors.OpConfigLoad,
				fmt.Errorf("failed to parse JSON config: %w", err))
		}
	default:
		return nil, saveErrors.NewValidationError(saveErrors.OpConfigLoad,
			fmt.Errorf("unsupported config format: %s", format))
	}

	return &fc, nil
}

// Config resolves the file values against DefaultConfig and validates
// the result.
func (fc *FileConfig) Config() (Config, error) {
	cfg := DefaultConfig()

	if fc.Enabled != nil {
		cfg.Enabled = *fc.Enabled
	}
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}

	var err error
	if cfg.DebounceDelay, err = parseDurationField("debounce_delay", fc.DebounceDelay, cfg.DebounceDelay); err != nil {
		return Config{}, err
	}
	if cfg.PeriodicInterval, err = parseDurationField("periodic_interval", fc.PeriodicInterval, cfg.PeriodicInterval); err != nil {
		return Config{}, err
	}
	if cfg.RetryDelay, err = parseDurationField("retry_delay", fc.RetryDelay, cfg.RetryDelay); err != nil {
		return Config{}, err
	}

	if cfg.DebounceDelay <= 0 {
		return Config{}, saveErrors.NewValidationError(saveErrors.OpConfigLoad,
			fmt.Errorf("debounce_delay must be positive, got %v", cfg.DebounceDelay))
	}
	if cfg.PeriodicInterval <= 0 {
		return Config{}, saveErrors.NewValidationError(saveErrors.OpConfigLoad,
			fmt.Errorf("periodic_interval must be positive, got %v", cfg.PeriodicInterval))
	}
	if cfg.MaxRetries < 0 {
		return Config{}, saveErrors.NewValidationError(saveErrors.OpConfigLoad,
			fmt.Errorf("max_retries must not be negative, got %d", cfg.MaxRetries))
	}
	if cfg.RetryDelay <= 0 {
		return Config{}, saveErrors.NewValidationError(saveErrors.OpConfigLoad,
			fmt.Errorf("retry_delay must be positive, got %v", cfg.RetryDelay))
	}

	return cfg, nil
}

// Resolver maps the configured resolution strategy name to an
// AutoResolver, or nil for manual resolution.
func (fc *FileConfig) Resolver() (AutoResolver, error) {
	switch strings.ToLower(fc.Resolution) {
	case "":
		return nil, nil
	case "server", "keep_server", "server_wins":
		return &KeepServerResolver{}, nil
	case "local", "keep_local", "local_wins":
		return &KeepLocalResolver{}, nil
	case "field_merge", "merge":
		return &FieldMergeResolver{}, nil
	default:
		return nil, saveErrors.NewValidationError(saveErrors.OpConfigLoad,
			fmt.Errorf("unknown resolution strategy: %s", fc.Resolution))
	}
}

// Options expands the file values into engine options, combining the
// resolved Config and, when set, the automatic resolver.
func (fc *FileConfig) Options() ([]EngineOption, error) {
	cfg, err := fc.Config()
	if err != nil {
		return nil, err
	}
	opts := []EngineOption{WithConfig(cfg)}

	resolver, err := fc.Resolver()
	if err != nil {
		return nil, err
	}
	if resolver != nil {
		opts = append(opts, WithAutoResolver(resolver))
	}
	return opts, nil
}

func parseDurationField(name, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, saveErrors.NewValidationError(saveErrors.OpConfigLoad,
			fmt.Errorf("invalid %s %q: %w", name, value, err))
	}
	return d, nil
}

func detectFormat(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "yaml"
	}
	switch strings.ToLower(path[idx+1:]) {
	case "json":
		return "json"
	default:
		return "yaml"
	}
}

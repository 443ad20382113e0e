package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config holds the scheduling and retry settings of an engine.
type Config struct {
	// Enabled toggles automatic scheduling. ManualSave works regardless.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// DebounceDelay is the quiet period after the last edit before an
	// automatic save fires.
	DebounceDelay time.Duration `json:"debounce_delay" yaml:"debounce_delay"`

	// PeriodicInterval is the interval of the periodic save safety net.
	PeriodicInterval time.Duration `json:"periodic_interval" yaml:"periodic_interval"`

	// MaxRetries bounds automatic retries after transient failures.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay is the fixed delay between automatic retries.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		DebounceDelay:    2 * time.Second,
		PeriodicInterval: 30 * time.Second,
		MaxRetries:       3,
		RetryDelay:       5 * time.Second,
	}
}

// EngineBuilder provides a fluent interface for constructing Engine instances.
type EngineBuilder struct {
	initial        Document
	client         PersistenceClient
	cfg            Config
	key            string
	logger         *slog.Logger
	metrics        MetricsCollector
	scheduler      Scheduler
	drafts         DraftStore
	resolver       AutoResolver
	audit          AuditTrail
	confirmDiscard func(context.Context) bool
}

// NewEngineBuilder creates a new builder with default options.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{
		cfg: DefaultConfig(),
	}
}

// WithInitialDocument sets the initial document value. The engine clones
// it; the baseline starts equal to the document.
func (b *EngineBuilder) WithInitialDocument(doc Document) *EngineBuilder {
	b.initial = doc
	return b
}

// WithClient sets the PersistenceClient for the Engine.
func (b *EngineBuilder) WithClient(client PersistenceClient) *EngineBuilder {
	b.client = client
	return b
}

// WithConfig replaces the entire configuration.
func (b *EngineBuilder) WithConfig(cfg Config) *EngineBuilder {
	b.cfg = cfg
	return b
}

// WithDebounceDelay sets the debounce quiet period.
func (b *EngineBuilder) WithDebounceDelay(d time.Duration) *EngineBuilder {
	b.cfg.DebounceDelay = d
	return b
}

// WithPeriodicInterval sets the periodic save interval.
func (b *EngineBuilder) WithPeriodicInterval(d time.Duration) *EngineBuilder {
	b.cfg.PeriodicInterval = d
	return b
}

// WithMaxRetries sets the retry bound.
func (b *EngineBuilder) WithMaxRetries(n int) *EngineBuilder {
	b.cfg.MaxRetries = n
	return b
}

// WithRetryDelay sets the fixed retry delay.
func (b *EngineBuilder) WithRetryDelay(d time.Duration) *EngineBuilder {
	b.cfg.RetryDelay = d
	return b
}

// WithEnabled toggles automatic scheduling.
func (b *EngineBuilder) WithEnabled(enabled bool) *EngineBuilder {
	b.cfg.Enabled = enabled
	return b
}

// WithDocumentKey sets the draft/audit key.
func (b *EngineBuilder) WithDocumentKey(key string) *EngineBuilder {
	b.key = key
	return b
}

// WithLogger sets a custom logger.
func (b *EngineBuilder) WithLogger(logger *slog.Logger) *EngineBuilder {
	b.logger = logger
	return b
}

// WithMetricsCollector sets the metrics collector.
func (b *EngineBuilder) WithMetricsCollector(mc MetricsCollector) *EngineBuilder {
	b.metrics = mc
	return b
}

// WithScheduler sets a custom timer scheduler.
func (b *EngineBuilder) WithScheduler(s Scheduler) *EngineBuilder {
	b.scheduler = s
	return b
}

// WithDraftStore enables draft journaling.
func (b *EngineBuilder) WithDraftStore(store DraftStore) *EngineBuilder {
	b.drafts = store
	return b
}

// WithAutoResolver configures automatic conflict resolution.
func (b *EngineBuilder) WithAutoResolver(r AutoResolver) *EngineBuilder {
	b.resolver = r
	return b
}

// WithAuditTrail records conflict resolutions.
func (b *EngineBuilder) WithAuditTrail(trail AuditTrail) *EngineBuilder {
	b.audit = trail
	return b
}

// WithConfirmDiscard registers the unsaved-changes confirmation callback.
func (b *EngineBuilder) WithConfirmDiscard(confirm func(context.Context) bool) *EngineBuilder {
	b.confirmDiscard = confirm
	return b
}

// Build creates a new Engine instance with the configured options.
func (b *EngineBuilder) Build() (*Engine, error) {
	if b.client == nil {
		return nil, fmt.Errorf("PersistenceClient is required")
	}
	if b.cfg.DebounceDelay <= 0 {
		return nil, fmt.Errorf("DebounceDelay must be positive, got %v", b.cfg.DebounceDelay)
	}
	if b.cfg.PeriodicInterval <= 0 {
		return nil, fmt.Errorf("PeriodicInterval must be positive, got %v", b.cfg.PeriodicInterval)
	}
	if b.cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("MaxRetries cannot be negative, got %d", b.cfg.MaxRetries)
	}
	if b.cfg.RetryDelay <= 0 {
		return nil, fmt.Errorf("RetryDelay must be positive, got %v", b.cfg.RetryDelay)
	}

	return newEngine(b), nil
}

// Reset clears the builder, allowing reuse.
func (b *EngineBuilder) Reset() *EngineBuilder {
	*b = EngineBuilder{cfg: DefaultConfig()}
	return b
}

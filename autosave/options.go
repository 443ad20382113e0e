package autosave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
)

// EngineOption is a functional option for configuring an Engine via NewEngine.
type EngineOption func(*EngineBuilder) error

// NewEngine constructs an Engine using functional options on top of the
// builder. The builder remains available for advanced use while this
// offers a concise, discoverable API.
func NewEngine(initial Document, client PersistenceClient, opts ...EngineOption) (*Engine, error) {
	b := NewEngineBuilder().WithInitialDocument(initial).WithClient(client)

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, saveErrors.NewWithComponent(saveErrors.OpConfigLoad, "autosave", err)
		}
	}

	return b.Build()
}

// WithConfig replaces the entire engine configuration.
func WithConfig(cfg Config) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithConfig(cfg)
		return nil
	}
}

// WithDebounceDelay sets the quiet period after the last edit before an
// automatic save fires.
func WithDebounceDelay(d time.Duration) EngineOption {
	return func(b *EngineBuilder) error {
		if d <= 0 {
			return errors.New("debounce delay must be positive")
		}
		b.WithDebounceDelay(d)
		return nil
	}
}

// WithPeriodicInterval sets the interval of the periodic save safety net.
func WithPeriodicInterval(d time.Duration) EngineOption {
	return func(b *EngineBuilder) error {
		if d <= 0 {
			return errors.New("periodic interval must be positive")
		}
		b.WithPeriodicInterval(d)
		return nil
	}
}

// WithMaxRetries bounds the number of automatic retries after failures.
func WithMaxRetries(n int) EngineOption {
	return func(b *EngineBuilder) error {
		if n < 0 {
			return errors.New("max retries cannot be negative")
		}
		b.WithMaxRetries(n)
		return nil
	}
}

// WithRetryDelay sets the fixed delay between automatic retries.
func WithRetryDelay(d time.Duration) EngineOption {
	return func(b *EngineBuilder) error {
		if d <= 0 {
			return errors.New("retry delay must be positive")
		}
		b.WithRetryDelay(d)
		return nil
	}
}

// WithEnabled toggles automatic scheduling. A disabled engine never
// arms timers; ManualSave still works.
func WithEnabled(enabled bool) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithEnabled(enabled)
		return nil
	}
}

// WithDocumentKey sets the key used for draft journaling and audit records.
func WithDocumentKey(key string) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithDocumentKey(key)
		return nil
	}
}

// WithEngineLogger sets a custom logger for the Engine.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithLogger(logger)
		return nil
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithMetricsCollector(mc)
		return nil
	}
}

// WithScheduler sets a custom timer scheduler, mainly for tests.
func WithScheduler(s Scheduler) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithScheduler(s)
		return nil
	}
}

// WithDraftStore enables draft journaling through the given store.
func WithDraftStore(store DraftStore) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithDraftStore(store)
		return nil
	}
}

// WithAutoResolver configures automatic conflict resolution. Conflicts
// are passed to the resolver instead of suspending the engine; a
// resolver error leaves the conflict pending for manual resolution.
func WithAutoResolver(r AutoResolver) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithAutoResolver(r)
		return nil
	}
}

// WithAuditTrail records conflict resolutions to the given trail.
func WithAuditTrail(trail AuditTrail) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithAuditTrail(trail)
		return nil
	}
}

// WithConfirmDiscard registers the host callback invoked by
// ConfirmShutdown when unsaved changes would be lost. The callback
// returns whether teardown may proceed.
func WithConfirmDiscard(confirm func(context.Context) bool) EngineOption {
	return func(b *EngineBuilder) error {
		b.WithConfirmDiscard(confirm)
		return nil
	}
}

// Convenience options for common strategies

// WithServerWins is convenience for automatic server-wins resolution.
func WithServerWins() EngineOption {
	return WithAutoResolver(&KeepServerResolver{})
}

// WithLocalWins is convenience for automatic last-write-wins resolution.
func WithLocalWins() EngineOption {
	return WithAutoResolver(&KeepLocalResolver{})
}

// WithFieldMerge is convenience for automatic per-field merge resolution.
func WithFieldMerge() EngineOption {
	return WithAutoResolver(&FieldMergeResolver{})
}

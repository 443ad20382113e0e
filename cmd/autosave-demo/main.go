// Command autosave-demo exercises the engine end to end against an
// in-process persistence backend: debounced saves, a transient failure
// with retry, and a conflict resolved by merging.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/c0deZ3R0/go-autosave-kit/autosave"
	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
	"github.com/c0deZ3R0/go-autosave-kit/logging"
)

// fakeBackend simulates a form service with optimistic concurrency: it
// can be told to fail the next save, or to mutate its copy so the next
// save conflicts.
type fakeBackend struct {
	mu          sync.Mutex
	doc         autosave.Document
	failNext    bool
	divergeNext bool
}

func (b *fakeBackend) Persist(ctx context.Context, doc autosave.Document) (autosave.SaveResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Simulated network latency
	time.Sleep(time.Duration(rand.Intn(30)) * time.Millisecond)

	if b.failNext {
		b.failNext = false
		return autosave.SaveResult{
			Outcome:      autosave.OutcomeFailure,
			ErrorMessage: "simulated network failure",
		}, nil
	}
	if b.divergeNext {
		b.divergeNext = false
		b.doc["reviewed_by"] = "someone-else"
		return autosave.SaveResult{
			Outcome:        autosave.OutcomeConflict,
			ServerDocument: b.doc.Clone(),
		}, nil
	}

	b.doc = doc.Clone()
	return autosave.SaveResult{
		Outcome:        autosave.OutcomeSuccess,
		ServerDocument: b.doc.Clone(),
	}, nil
}

func main() {
	config := logging.GetConfigFromEnv()
	logging.Init(config)

	logging.Info("autosave demo starting",
		slog.String("environment", config.Environment),
	)

	backend := &fakeBackend{doc: autosave.Document{}}
	logger := logging.WithComponent(logging.Component("engine")).Logger

	engine, err := autosave.NewEngine(
		autosave.Document{"title": "untitled", "body": ""},
		autosave.PersistFunc(backend.Persist),
		autosave.WithDocumentKey("demo-form"),
		autosave.WithDebounceDelay(200*time.Millisecond),
		autosave.WithPeriodicInterval(5*time.Second),
		autosave.WithRetryDelay(300*time.Millisecond),
		autosave.WithEngineLogger(logger),
		autosave.WithAuditTrail(autosave.NewInMemoryAuditTrail()),
	)
	if err != nil {
		logging.LogError(context.Background(), err, "failed to build engine")
		return
	}
	defer engine.Close()

	engine.Subscribe(func(s autosave.Snapshot) {
		logging.Debug("status changed",
			slog.String("status", string(s.Status)),
			slog.Bool("dirty", s.HasUnsavedChanges),
			slog.Int("retry_count", s.RetryCount),
		)
	})

	// Debounced save: two rapid edits, one attempt.
	engine.SetField("title", "Quarterly report")
	engine.SetField("body", "Draft introduction")
	waitStatus(engine, autosave.StatusSaved)
	logging.Info("debounced save landed", slog.Any("document", engine.Document()))

	// Transient failure and retry.
	backend.mu.Lock()
	backend.failNext = true
	backend.mu.Unlock()
	engine.SetField("body", "Revised introduction")
	waitStatus(engine, autosave.StatusError)
	snap := engine.Snapshot()
	logging.Warn("save failed, retry pending",
		slog.String("error", snap.ErrorMessage),
		slog.Int("retry_count", snap.RetryCount),
	)
	waitStatus(engine, autosave.StatusSaved)
	logging.Info("retry recovered")

	// Conflict, resolved by merging our edits over the server copy.
	backend.mu.Lock()
	backend.divergeNext = true
	backend.mu.Unlock()
	engine.SetField("body", "Final introduction")
	waitStatus(engine, autosave.StatusConflict)

	conflict := engine.Snapshot().Conflict
	logging.Info("conflict detected",
		slog.Any("fields", conflict.ConflictFields),
	)

	merged := conflict.ServerVersion.Clone()
	merged.Merge(autosave.Document{"body": "Final introduction"})
	if err := engine.ResolveConflict(context.Background(), autosave.ResolveMerge, merged); err != nil {
		logging.LogError(context.Background(), err, "resolution failed")
		return
	}
	waitStatus(engine, autosave.StatusSaved)
	logging.Info("conflict resolved", slog.Any("document", engine.Document()))

	// Structured error reporting, as surfaced to hosts.
	demoErr := saveErrors.NewTransientError(saveErrors.OpSave, fmt.Errorf("connection reset"))
	logging.LogError(context.Background(), demoErr, "example of a transient failure",
		slog.String("document", "demo-form"),
	)

	logging.Info("autosave demo finished")
}

func waitStatus(engine *autosave.Engine, want autosave.Status) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if engine.Snapshot().Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	logging.Error("timed out waiting for status", slog.String("want", string(want)))
}

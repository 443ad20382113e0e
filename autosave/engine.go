package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
)

// Sentinel errors wrapped by the structured errors the engine returns.
var (
	ErrClosed          = errors.New("engine is closed")
	ErrSaveInFlight    = errors.New("a save is already in flight")
	ErrConflictPending = errors.New("a conflict is pending resolution")
	ErrNoConflict      = errors.New("no conflict is pending")
)

// defaultSaveTimeout bounds automatic persistence calls.
const defaultSaveTimeout = 30 * time.Second

// Save attempt triggers, used in logs and metrics.
const (
	triggerDebounce   = "debounce"
	triggerPeriodic   = "periodic"
	triggerRetry      = "retry"
	triggerManual     = "manual"
	triggerResolution = "resolution"
)

// Engine coordinates when in-progress edits are persisted. It owns the
// document and its last-persisted baseline, schedules debounced and
// periodic save attempts, retries transient failures with a bounded
// fixed delay, and suspends automatic saving while a conflict awaits
// resolution.
//
// All methods are safe for concurrent use. The engine runs no
// background goroutine of its own; work happens in timer callbacks and
// in one goroutine per in-flight save attempt.
type Engine struct {
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

	mu           sync.Mutex
	initial      Document
	doc          Document
	baseline     Document
	status       Status
	lastSaved    time.Time
	lastModified time.Time
	errMsg       string
	retryCount   int
	conflict     *ConflictCase

	// saving is the single-flight guard: set before a persistence call
	// starts, cleared when it settles, on every exit path.
	saving bool

	// generation invalidates in-flight results after Reset or Close.
	generation uint64

	// exhausted suppresses the periodic safety net after the retry
	// budget is spent; cleared by an edit, a manual save, or a reset.
	exhausted bool

	closed bool

	debounceTimer Timer
	periodicTimer Timer
	retryTimer    Timer

	subscribers []*subscriber
}

func newEngine(b *EngineBuilder) *Engine {
	e := &Engine{
		client:         b.client,
		cfg:            b.cfg,
		key:            b.key,
		logger:         b.logger,
		metrics:        b.metrics,
		scheduler:      b.scheduler,
		drafts:         b.drafts,
		resolver:       b.resolver,
		audit:          b.audit,
		confirmDiscard: b.confirmDiscard,
		initial:        b.initial.Clone(),
		doc:            b.initial.Clone(),
		baseline:       b.initial.Clone(),
		status:         StatusIdle,
	}
	if e.initial == nil {
		e.initial = Document{}
		e.doc = Document{}
		e.baseline = Document{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = &NoOpMetricsCollector{}
	}
	if e.scheduler == nil {
		e.scheduler = NewSystemScheduler()
	}

	e.mu.Lock()
	e.armPeriodicLocked()
	e.mu.Unlock()

	e.logger.Debug("autosave engine created",
		"document", e.key,
		"enabled", e.cfg.Enabled,
		"debounce_delay", e.cfg.DebounceDelay,
		"periodic_interval", e.cfg.PeriodicInterval,
		"max_retries", e.cfg.MaxRetries,
		"retry_delay", e.cfg.RetryDelay)
	return e
}

// Update shallow-merges the fields of partial into the document and
// re-arms the debounce timer.
func (e *Engine) Update(partial Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return saveErrors.New(saveErrors.OpUpdate, ErrClosed)
	}
	if len(partial) == 0 {
		return nil
	}

	e.doc.Merge(partial)
	e.lastModified = time.Now()
	if e.status == StatusSaved {
		e.status = StatusIdle
	}
	// A fresh edit cycle resumes automatic saving after exhaustion.
	e.exhausted = false

	e.journalDraftLocked()
	e.armDebounceLocked()
	e.notifyLocked()
	return nil
}

// SetField updates a single top-level field.
func (e *Engine) SetField(key string, value any) error {
	return e.Update(Document{key: value})
}

// ManualSave forces an immediate save attempt, bypassing the debounce
// and dirty checks. It returns ErrSaveInFlight (wrapped) when a save is
// already running, and ErrConflictPending while a conflict awaits
// resolution.
func (e *Engine) ManualSave(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return saveErrors.New(saveErrors.OpManualSave, ErrClosed)
	}
	if e.conflict != nil {
		return saveErrors.NewConflictError(saveErrors.OpManualSave, ErrConflictPending)
	}
	if e.saving {
		return saveErrors.New(saveErrors.OpManualSave, ErrSaveInFlight)
	}

	e.exhausted = false
	e.stopTimer(&e.debounceTimer)
	e.stopTimer(&e.retryTimer)
	e.startSaveLocked(ctx, triggerManual)
	return nil
}

// ResolveConflict applies exactly one resolution action to the pending
// conflict case. For ResolveMerge the caller supplies the merged
// document; it is treated as a new edit and saved immediately.
func (e *Engine) ResolveConflict(ctx context.Context, action ResolutionAction, merged Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return saveErrors.New(saveErrors.OpConflictResolve, ErrClosed)
	}
	if e.conflict == nil {
		return saveErrors.NewConflictError(saveErrors.OpConflictResolve, ErrNoConflict)
	}

	if err := e.applyResolutionLocked(action, merged, false, nil); err != nil {
		return err
	}
	e.notifyLocked()
	return nil
}

// Reset discards the document, restores the initial value, and clears
// status, metadata, and any pending conflict. Results of an in-flight
// save arriving later are discarded.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return saveErrors.New(saveErrors.OpReset, ErrClosed)
	}

	e.generation++
	e.stopTimer(&e.debounceTimer)
	e.stopTimer(&e.retryTimer)

	e.doc = e.initial.Clone()
	e.baseline = e.initial.Clone()
	e.status = StatusIdle
	e.conflict = nil
	e.retryCount = 0
	e.exhausted = false
	e.errMsg = ""
	e.lastSaved = time.Time{}
	e.lastModified = time.Time{}

	e.clearDraftLocked()
	e.logger.Info("autosave engine reset", "document", e.key)
	e.notifyLocked()
	return nil
}

// RecoverDraft loads a previously journaled draft, applies it as an
// edit, and reports whether a draft existed.
func (e *Engine) RecoverDraft(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false, saveErrors.New(saveErrors.OpDraftStore, ErrClosed)
	}
	if e.drafts == nil {
		return false, nil
	}

	doc, ok, err := e.drafts.LoadDraft(ctx, e.key)
	if err != nil {
		return false, saveErrors.NewStorageError(saveErrors.OpDraftStore, err)
	}
	if !ok {
		return false, nil
	}

	e.doc = doc.Clone()
	e.lastModified = time.Now()
	e.armDebounceLocked()
	e.logger.Info("draft recovered", "document", e.key)
	e.notifyLocked()
	return true, nil
}

// Snapshot returns a read-only copy of the engine's status and metadata.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Document returns an immutable copy of the current document value.
func (e *Engine) Document() Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// Subscribe registers a handler notified on every status transition.
// Each handler runs off the engine's goroutines and receives snapshots
// in the order the transitions occurred; panics are recovered.
func (e *Engine) Subscribe(handler func(Snapshot)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return saveErrors.New(saveErrors.OpUpdate, ErrClosed)
	}
	e.subscribers = append(e.subscribers, &subscriber{handler: handler})
	e.logger.Debug("subscriber added", "total_subscribers", len(e.subscribers))
	return nil
}

// ConfirmShutdown should be called when the host is about to terminate.
// If unsaved changes exist it invokes the registered confirmation
// callback and returns its answer; otherwise it returns true.
func (e *Engine) ConfirmShutdown(ctx context.Context) bool {
	e.mu.Lock()
	dirty := !e.closed && e.dirtyLocked()
	confirm := e.confirmDiscard
	e.mu.Unlock()

	if !dirty || confirm == nil {
		return true
	}
	return confirm(ctx)
}

// Close stops all timers and shuts the engine down. Results of an
// in-flight save arriving later are discarded without mutating state.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.generation++

	e.stopTimer(&e.debounceTimer)
	e.stopTimer(&e.periodicTimer)
	e.stopTimer(&e.retryTimer)

	var errs []error
	if e.drafts != nil {
		if err := e.drafts.Close(); err != nil {
			errs = append(errs, saveErrors.NewWithComponent(saveErrors.OpClose, "store", err))
		}
	}

	e.logger.Info("autosave engine closed", "document", e.key)
	if len(errs) > 0 {
		return saveErrors.New(saveErrors.OpClose, fmt.Errorf("close errors: %v", errs))
	}
	return nil
}

// --- scheduling ---

func (e *Engine) armDebounceLocked() {
	if !e.cfg.Enabled || e.conflict != nil {
		return
	}
	e.stopTimer(&e.debounceTimer)
	e.debounceTimer = e.scheduler.After(e.cfg.DebounceDelay, e.onDebounce)
}

func (e *Engine) armPeriodicLocked() {
	if !e.cfg.Enabled {
		return
	}
	e.periodicTimer = e.scheduler.After(e.cfg.PeriodicInterval, e.onPeriodic)
}

func (e *Engine) onDebounce() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.conflict != nil || e.exhausted {
		return
	}
	if e.saving {
		// Dropped, not queued; the next timer fire samples the document
		// as it is then.
		e.logger.Debug("debounce fire dropped, save in flight", "document", e.key)
		return
	}
	if !e.dirtyLocked() {
		return
	}
	e.startSaveLocked(context.Background(), triggerDebounce)
}

func (e *Engine) onPeriodic() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.armPeriodicLocked()

	if e.conflict != nil || e.exhausted || e.saving || !e.dirtyLocked() {
		return
	}
	e.startSaveLocked(context.Background(), triggerPeriodic)
}

func (e *Engine) onRetry() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.conflict != nil || e.saving {
		return
	}
	if !e.dirtyLocked() {
		e.logger.Debug("retry fire dropped, nothing to save", "document", e.key)
		return
	}
	e.startSaveLocked(context.Background(), triggerRetry)
}

func (e *Engine) stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// --- save attempt ---

// startSaveLocked acquires the single-flight guard and launches the
// persistence call. The document is sampled here, at attempt start, so
// rapid edits resolve last-write-wins.
func (e *Engine) startSaveLocked(ctx context.Context, trigger string) {
	e.saving = true
	e.status = StatusSaving
	attempt := e.doc.Clone()
	gen := e.generation

	e.logger.Debug("save attempt started", "document", e.key, "trigger", trigger)
	e.notifyLocked()
	go e.performSave(ctx, attempt, gen, trigger)
}

func (e *Engine) performSave(ctx context.Context, attempt Document, gen uint64, trigger string) {
	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultSaveTimeout)
	defer cancel()

	result := e.invokeClient(opCtx, attempt)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Release the single-flight guard on every settle path, including
	// discarded results.
	e.saving = false
	e.metrics.RecordSaveDuration(trigger, time.Since(start))

	if e.closed || gen != e.generation {
		e.logger.Debug("stale save result discarded",
			"document", e.key,
			"trigger", trigger,
			"outcome", string(result.Outcome))
		return
	}

	e.metrics.RecordSaveOutcome(result.Outcome)

	switch result.Outcome {
	case OutcomeSuccess:
		e.applySuccessLocked(attempt, result, trigger)
	case OutcomeConflict:
		e.applyConflictLocked(opCtx, result)
	default:
		e.applyFailureLocked(result, trigger)
	}
	e.notifyLocked()
}

// invokeClient performs the persistence call, translating errors and
// panics into failure results so nothing escapes into the caller.
func (e *Engine) invokeClient(ctx context.Context, doc Document) (result SaveResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("persistence client panic recovered", "panic", r)
			result = SaveResult{
				Outcome:      OutcomeFailure,
				ErrorMessage: fmt.Sprintf("persistence client panic: %v", r),
			}
		}
	}()

	res, err := e.client.Persist(ctx, doc)
	if err != nil {
		return SaveResult{Outcome: OutcomeFailure, ErrorMessage: err.Error()}
	}
	if res.Outcome == "" {
		return SaveResult{Outcome: OutcomeFailure, ErrorMessage: "persistence client returned no outcome"}
	}
	// A conflict without the server's document cannot be resolved.
	if res.Outcome == OutcomeConflict && res.ServerDocument == nil {
		return SaveResult{Outcome: OutcomeFailure, ErrorMessage: "conflict result missing server document"}
	}
	return res
}

func (e *Engine) applySuccessLocked(attempt Document, result SaveResult, trigger string) {
	server := result.ServerDocument
	if server == nil {
		server = attempt
	}
	e.baseline = server.Clone()

	// Adopt server normalization only if no edits landed during the
	// flight; later edits win over the in-flight snapshot.
	if e.doc.Equal(attempt) {
		e.doc = server.Clone()
	}

	e.status = StatusSaved
	e.lastSaved = time.Now()
	e.retryCount = 0
	e.exhausted = false
	e.errMsg = ""
	e.stopTimer(&e.retryTimer)
	e.clearDraftLocked()

	e.logger.Info("save succeeded",
		"document", e.key,
		"trigger", trigger,
		"still_dirty", e.dirtyLocked())
}

func (e *Engine) applyFailureLocked(result SaveResult, trigger string) {
	e.status = StatusError
	e.errMsg = result.ErrorMessage
	e.retryCount++

	if e.retryCount < e.cfg.MaxRetries {
		e.metrics.RecordRetryScheduled(e.retryCount)
		e.retryTimer = e.scheduler.After(e.cfg.RetryDelay, e.onRetry)
		e.logger.Warn("save failed, retry scheduled",
			"document", e.key,
			"trigger", trigger,
			"retry_count", e.retryCount,
			"retry_delay", e.cfg.RetryDelay,
			"error_message", result.ErrorMessage)
		return
	}

	e.exhausted = true
	err := saveErrors.NewExhaustedError(saveErrors.OpSave,
		fmt.Errorf("%d consecutive failures: %s", e.retryCount, result.ErrorMessage))
	e.logger.Error("save retries exhausted, automatic saving suspended",
		"document", e.key,
		"retry_count", e.retryCount,
		"error", err)
}

func (e *Engine) applyConflictLocked(ctx context.Context, result SaveResult) {
	c := newConflictCase(e.doc, result.ServerDocument)
	e.conflict = c
	e.status = StatusConflict
	e.errMsg = ""
	e.stopTimer(&e.debounceTimer)
	e.stopTimer(&e.retryTimer)

	e.logger.Info("save conflict detected",
		"document", e.key,
		"conflict_fields", c.ConflictFields)

	if e.resolver == nil {
		e.metrics.RecordConflict(false)
		return
	}

	res, err := e.resolver.Resolve(ctx, *c.clone())
	if err != nil {
		e.metrics.RecordConflict(false)
		e.logger.Warn("automatic conflict resolution failed, awaiting manual resolution",
			"document", e.key,
			"error", err)
		return
	}

	e.metrics.RecordConflict(true)
	if err := e.applyResolutionLocked(res.Action, res.Merged, true, res.Reasons); err != nil {
		e.logger.Error("automatic resolution could not be applied",
			"document", e.key,
			"action", string(res.Action),
			"error", err)
	}
}

// applyResolutionLocked applies one resolution action and clears the
// conflict case. For keep-local and merge the server version is adopted
// as the known baseline first, so the forced save carries the server's
// latest version and is accepted (last-write-wins override). Forced
// saves run on a fresh context: they outlive the resolving call.
func (e *Engine) applyResolutionLocked(action ResolutionAction, merged Document, automatic bool, reasons []string) error {
	c := e.conflict

	switch action {
	case ResolveKeepServer:
		e.doc = c.ServerVersion.Clone()
		e.baseline = c.ServerVersion.Clone()
		e.conflict = nil
		e.status = StatusSaved
		e.lastSaved = time.Now()
		e.errMsg = ""
		e.clearDraftLocked()
		e.logger.Info("conflict resolved: server version kept", "document", e.key, "automatic", automatic)

	case ResolveKeepLocal:
		e.baseline = c.ServerVersion.Clone()
		e.conflict = nil
		e.logger.Info("conflict resolved: local version kept, forcing save", "document", e.key, "automatic", automatic)
		e.startSaveLocked(context.Background(), triggerResolution)

	case ResolveMerge:
		if merged == nil {
			return saveErrors.NewValidationError(saveErrors.OpConflictResolve,
				fmt.Errorf("merge resolution requires a merged document"))
		}
		e.doc = merged.Clone()
		e.lastModified = time.Now()
		e.baseline = c.ServerVersion.Clone()
		e.conflict = nil
		e.journalDraftLocked()
		e.logger.Info("conflict resolved: merged document applied, forcing save", "document", e.key, "automatic", automatic)
		e.startSaveLocked(context.Background(), triggerResolution)

	default:
		return saveErrors.NewValidationError(saveErrors.OpConflictResolve,
			fmt.Errorf("unknown resolution action %q", action))
	}

	e.recordResolutionLocked(c, action, automatic, reasons)
	return nil
}

// --- internal helpers ---

func (e *Engine) dirtyLocked() bool {
	return !e.doc.Equal(e.baseline)
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Status:            e.status,
		LastSaved:         e.lastSaved,
		LastModified:      e.lastModified,
		ErrorMessage:      e.errMsg,
		RetryCount:        e.retryCount,
		Retrying:          e.status == StatusError && e.retryCount < e.cfg.MaxRetries,
		HasUnsavedChanges: e.dirtyLocked(),
		Conflict:          e.conflict.clone(),
	}
}

func (e *Engine) notifyLocked() {
	if len(e.subscribers) == 0 {
		return
	}
	snap := e.snapshotLocked()
	for _, sub := range e.subscribers {
		sub.enqueue(snap, e.logger)
	}
}

// subscriber delivers snapshots to one handler in emission order. The
// engine enqueues under its own lock; a single drain goroutine per
// subscriber runs the handler, so a handler never runs concurrently
// with itself and never observes transitions out of order.
type subscriber struct {
	handler func(Snapshot)

	mu       sync.Mutex
	queue    []Snapshot
	draining bool
}

func (s *subscriber) enqueue(snap Snapshot, logger *slog.Logger) {
	s.mu.Lock()
	s.queue = append(s.queue, snap)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()
	go s.drain(logger)
}

func (s *subscriber) drain(logger *slog.Logger) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		snap := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.deliver(snap, logger)
	}
}

func (s *subscriber) deliver(snap Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("subscriber panic recovered", "panic", r)
		}
	}()
	s.handler(snap)
}

func (e *Engine) journalDraftLocked() {
	if e.drafts == nil {
		return
	}
	if err := e.drafts.SaveDraft(context.Background(), e.key, e.doc.Clone()); err != nil {
		e.logger.Warn("draft journal write failed",
			"document", e.key,
			"error", saveErrors.NewStorageError(saveErrors.OpDraftStore, err))
	}
}

func (e *Engine) clearDraftLocked() {
	if e.drafts == nil {
		return
	}
	if err := e.drafts.ClearDraft(context.Background(), e.key); err != nil {
		e.logger.Warn("draft journal clear failed",
			"document", e.key,
			"error", saveErrors.NewStorageError(saveErrors.OpDraftStore, err))
	}
}

func (e *Engine) recordResolutionLocked(c *ConflictCase, action ResolutionAction, automatic bool, reasons []string) {
	if e.audit == nil {
		return
	}
	rec := newResolutionRecord(e.key, c, action, automatic, reasons)
	if err := e.audit.Record(context.Background(), rec); err != nil {
		e.logger.Warn("audit record failed", "document", e.key, "error", err)
	}
}

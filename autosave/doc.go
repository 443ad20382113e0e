// Package autosave provides an embeddable auto-save engine for editable
// documents. It decides when in-progress edits should be persisted
// (debounced on edit activity, with a periodic safety net), retries
// transient failures with a bounded fixed delay, and resolves
// optimistic-concurrency conflicts between local edits and a concurrently
// modified server copy.
//
// The engine owns the document and its last-persisted baseline. External
// code submits partial updates and reads immutable snapshots; the actual
// write is delegated to a caller-supplied PersistenceClient.
package autosave

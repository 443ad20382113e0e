package autosave

import "time"

// Status describes the engine's save state.
type Status string

const (
	// StatusIdle means no save activity; the document may still be dirty.
	StatusIdle Status = "idle"

	// StatusSaving means a persistence call is in flight.
	StatusSaving Status = "saving"

	// StatusSaved means the last save attempt succeeded.
	StatusSaved Status = "saved"

	// StatusError means the last save attempt failed. Retries may still
	// be pending; see Snapshot.Retrying.
	StatusError Status = "error"

	// StatusConflict means the server copy changed since the last known
	// baseline. Automatic saving is suspended until the conflict is
	// resolved.
	StatusConflict Status = "conflict"
)

// Snapshot is a read-only view of the engine's status and metadata,
// exposed to the surrounding UI.
type Snapshot struct {
	Status Status

	// LastSaved is the time of the last successful save. Zero if no
	// save has succeeded yet.
	LastSaved time.Time

	// LastModified is the time of the last edit. Zero if the document
	// has not been edited.
	LastModified time.Time

	// ErrorMessage holds the last failure message while Status is error.
	ErrorMessage string

	// RetryCount is the number of consecutive failed save attempts.
	RetryCount int

	// Retrying reports whether another automatic retry is still pending.
	Retrying bool

	// HasUnsavedChanges reports whether the document differs from its
	// last-persisted baseline.
	HasUnsavedChanges bool

	// Conflict carries the pending conflict case while Status is
	// conflict, nil otherwise.
	Conflict *ConflictCase
}

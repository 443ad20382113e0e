package autosave

import "context"

// Outcome classifies the result of a persistence call.
type Outcome string

const (
	// OutcomeSuccess means the write was accepted.
	OutcomeSuccess Outcome = "success"

	// OutcomeConflict means the write was rejected because the server
	// copy changed since the engine's last known baseline.
	OutcomeConflict Outcome = "conflict"

	// OutcomeFailure means a transient error occurred; no versioning is
	// implied and the attempt may be retried.
	OutcomeFailure Outcome = "failure"
)

// SaveResult is the outcome of a single persistence call.
type SaveResult struct {
	Outcome Outcome

	// ServerDocument is the server's copy. On success it becomes the new
	// baseline (and the document, if the server normalized any fields).
	// On conflict it is the concurrently modified server version.
	ServerDocument Document

	// ErrorMessage describes a failure outcome.
	ErrorMessage string
}

// PersistenceClient performs the actual write. It is the only suspending
// operation in the engine. Implementations are supplied by the caller;
// HTTP, database, or in-memory clients all work.
//
// A non-nil error return is treated by the engine as a transient
// failure, equivalent to returning OutcomeFailure. Implementations
// should prefer returning OutcomeFailure with a message for expected
// transient conditions and reserve errors for unexpected ones.
type PersistenceClient interface {
	Persist(ctx context.Context, doc Document) (SaveResult, error)
}

// PersistFunc adapts a function to the PersistenceClient interface.
type PersistFunc func(ctx context.Context, doc Document) (SaveResult, error)

func (f PersistFunc) Persist(ctx context.Context, doc Document) (SaveResult, error) {
	return f(ctx, doc)
}

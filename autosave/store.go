package autosave

import "context"

// DraftStore persists in-progress edits so an interrupted session can
// be recovered. The engine writes a draft on every edit and clears it
// on a successful save or reset. Implementations can use any backend;
// see storage/memory and storage/sqlite.
type DraftStore interface {
	// SaveDraft stores the current draft for a document key
	SaveDraft(ctx context.Context, key string, doc Document) error

	// LoadDraft retrieves the draft for a document key. The boolean
	// reports whether a draft exists.
	LoadDraft(ctx context.Context, key string) (Document, bool, error)

	// ClearDraft removes the draft for a document key
	ClearDraft(ctx context.Context, key string) error

	// Close releases store resources
	Close() error
}

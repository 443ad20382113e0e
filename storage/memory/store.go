// Package memory provides an in-memory implementation of the
// go-autosave-kit DraftStore, suitable for tests and single-process use.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/c0deZ3R0/go-autosave-kit/autosave"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("store is closed")

// DraftStore keeps drafts in a map guarded by a mutex. Documents are
// cloned on the way in and out so callers cannot alias stored state.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]autosave.Document
	closed bool
}

// Compile-time check that DraftStore satisfies the DraftStore interface
var _ autosave.DraftStore = (*DraftStore)(nil)

// New creates an empty in-memory draft store.
func New() *DraftStore {
	return &DraftStore{
		drafts: make(map[string]autosave.Document),
	}
}

// SaveDraft stores a copy of doc under key.
func (s *DraftStore) SaveDraft(ctx context.Context, key string, doc autosave.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.drafts[key] = doc.Clone()
	return nil
}

// LoadDraft returns a copy of the draft stored under key, if any.
func (s *DraftStore) LoadDraft(ctx context.Context, key string) (autosave.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}
	doc, ok := s.drafts[key]
	if !ok {
		return nil, false, nil
	}
	return doc.Clone(), true, nil
}

// ClearDraft removes the draft stored under key. Clearing a missing
// draft is not an error.
func (s *DraftStore) ClearDraft(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	delete(s.drafts, key)
	return nil
}

// Len reports the number of stored drafts.
func (s *DraftStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// Close marks the store closed. Subsequent operations return
// ErrStoreClosed.
func (s *DraftStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

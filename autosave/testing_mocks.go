package autosave

import (
	"context"
	"sync"
	"time"
)

// Mock types for testing

// fakeTimer is a manually fired Timer.
type fakeTimer struct {
	d  time.Duration
	fn func()

	mu      sync.Mutex
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fire runs the callback unless the timer was stopped or already fired.
func (t *fakeTimer) fire() bool {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	t.mu.Unlock()
	t.fn()
	return true
}

// fakeScheduler records scheduled timers so tests control exactly when
// each callback runs.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (s *fakeScheduler) After(d time.Duration, fn func()) Timer {
	t := &fakeTimer{d: d, fn: fn}
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
	return t
}

// pending returns timers that have neither fired nor been stopped.
func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*fakeTimer
	for _, t := range s.timers {
		t.mu.Lock()
		live := !t.stopped && !t.fired
		t.mu.Unlock()
		if live {
			active = append(active, t)
		}
	}
	return active
}

// firePending fires every currently pending timer once, returning how
// many ran.
func (s *fakeScheduler) firePending() int {
	fired := 0
	for _, t := range s.pending() {
		if t.fire() {
			fired++
		}
	}
	return fired
}

// fireDuration fires pending timers scheduled with exactly d, returning
// how many ran. Tests give each timer class a distinct delay so a class
// can be fired in isolation.
func (s *fakeScheduler) fireDuration(d time.Duration) int {
	fired := 0
	for _, t := range s.pending() {
		if t.d == d && t.fire() {
			fired++
		}
	}
	return fired
}

// scheduled returns the total number of timers ever scheduled.
func (s *fakeScheduler) scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// mockClient is a scripted PersistenceClient. Each call consumes the
// next queued response; when the queue is empty it succeeds, echoing
// the document back.
type mockClient struct {
	mu        sync.Mutex
	responses []func(Document) (SaveResult, error)
	calls     []Document
	release   chan struct{} // when set, Persist blocks until closed
}

func newMockClient() *mockClient {
	return &mockClient{}
}

func (m *mockClient) Persist(ctx context.Context, doc Document) (SaveResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, doc.Clone())
	var respond func(Document) (SaveResult, error)
	if len(m.responses) > 0 {
		respond = m.responses[0]
		m.responses = m.responses[1:]
	}
	release := m.release
	m.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return SaveResult{}, ctx.Err()
		}
	}

	if respond == nil {
		return SaveResult{Outcome: OutcomeSuccess, ServerDocument: doc.Clone()}, nil
	}
	return respond(doc)
}

func (m *mockClient) enqueue(respond func(Document) (SaveResult, error)) {
	m.mu.Lock()
	m.responses = append(m.responses, respond)
	m.mu.Unlock()
}

func (m *mockClient) enqueueFailure(msg string) {
	m.enqueue(func(Document) (SaveResult, error) {
		return SaveResult{Outcome: OutcomeFailure, ErrorMessage: msg}, nil
	})
}

func (m *mockClient) enqueueConflict(server Document) {
	m.enqueue(func(Document) (SaveResult, error) {
		return SaveResult{Outcome: OutcomeConflict, ServerDocument: server.Clone()}, nil
	})
}

func (m *mockClient) blockUntil(release chan struct{}) {
	m.mu.Lock()
	m.release = release
	m.mu.Unlock()
}

func (m *mockClient) unblock() {
	m.mu.Lock()
	m.release = nil
	m.mu.Unlock()
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockClient) call(i int) Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i].Clone()
}

// mockDraftStore is an in-memory DraftStore for engine tests.
type mockDraftStore struct {
	mu     sync.Mutex
	drafts map[string]Document
}

func newMockDraftStore() *mockDraftStore {
	return &mockDraftStore{drafts: make(map[string]Document)}
}

func (s *mockDraftStore) seed(key string, doc Document) {
	s.mu.Lock()
	s.drafts[key] = doc.Clone()
	s.mu.Unlock()
}

func (s *mockDraftStore) SaveDraft(ctx context.Context, key string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[key] = doc.Clone()
	return nil
}

func (s *mockDraftStore) LoadDraft(ctx context.Context, key string) (Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.drafts[key]
	if !ok {
		return nil, false, nil
	}
	return doc.Clone(), true, nil
}

func (s *mockDraftStore) ClearDraft(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	return nil
}

func (s *mockDraftStore) Close() error { return nil }

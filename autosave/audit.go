package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ResolutionRecord captures a single conflict resolution for audit
// trails. Records are serialization-friendly: they store copies of the
// documents involved rather than live references.
type ResolutionRecord struct {
	// Unique identifier for this resolution
	ID string `json:"id"`

	// Timestamp when the resolution was applied
	Timestamp time.Time `json:"timestamp"`

	// DocumentKey identifies the document the conflict belonged to
	DocumentKey string `json:"document_key"`

	// Action that resolved the conflict
	Action ResolutionAction `json:"action"`

	// Automatic reports whether an AutoResolver made the decision
	Automatic bool `json:"automatic"`

	// ConflictFields implicated in the conflict
	ConflictFields []string `json:"conflict_fields,omitempty"`

	// ServerVersion and LocalVersion at detection time
	ServerVersion Document `json:"server_version,omitempty"`
	LocalVersion  Document `json:"local_version,omitempty"`

	// Reasons are resolver annotations, empty for manual resolutions
	Reasons []string `json:"reasons,omitempty"`
}

// AuditTrail stores resolution records. Implementations must be safe for
// concurrent use.
type AuditTrail interface {
	// Record stores a resolution record
	Record(ctx context.Context, record *ResolutionRecord) error

	// ForDocument returns all records for a document key, oldest first
	ForDocument(ctx context.Context, key string) ([]*ResolutionRecord, error)
}

func newResolutionRecord(key string, c *ConflictCase, action ResolutionAction, automatic bool, reasons []string) *ResolutionRecord {
	rec := &ResolutionRecord{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		DocumentKey: key,
		Action:      action,
		Automatic:   automatic,
		Reasons:     reasons,
	}
	if c != nil {
		cc := c.clone()
		rec.ConflictFields = cc.ConflictFields
		rec.ServerVersion = cc.ServerVersion
		rec.LocalVersion = cc.LocalVersion
	}
	return rec
}

// InMemoryAuditTrail is an in-memory AuditTrail. For production use,
// implement a persistent backend.
type InMemoryAuditTrail struct {
	mu      sync.RWMutex
	records map[string][]*ResolutionRecord
}

// NewInMemoryAuditTrail creates a new in-memory audit trail.
func NewInMemoryAuditTrail() *InMemoryAuditTrail {
	return &InMemoryAuditTrail{
		records: make(map[string][]*ResolutionRecord),
	}
}

func (a *InMemoryAuditTrail) Record(ctx context.Context, record *ResolutionRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("resolution record must have an ID")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.records[record.DocumentKey] = append(a.records[record.DocumentKey], record)
	return nil
}

func (a *InMemoryAuditTrail) ForDocument(ctx context.Context, key string) ([]*ResolutionRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	records := a.records[key]
	out := make([]*ResolutionRecord, len(records))
	copy(out, records)
	return out, nil
}

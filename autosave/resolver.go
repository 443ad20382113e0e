package autosave

import "context"

// Resolution captures an automatic resolver's decision for a conflict.
type Resolution struct {
	Action ResolutionAction

	// Merged is the document to apply when Action is ResolveMerge.
	Merged Document

	// Reasons are human-readable annotations for audit and telemetry.
	Reasons []string
}

// AutoResolver is the Strategy interface for automatic conflict
// resolution. When an engine is configured with one, detected conflicts
// are handed to it instead of suspending in the conflict state; the
// returned decision is applied as if ResolveConflict had been called.
// An error return leaves the conflict pending for manual resolution.
type AutoResolver interface {
	Resolve(ctx context.Context, c ConflictCase) (Resolution, error)
}

var (
	_ AutoResolver = (*KeepServerResolver)(nil)
	_ AutoResolver = (*KeepLocalResolver)(nil)
	_ AutoResolver = (*FieldMergeResolver)(nil)
)

// KeepServerResolver always adopts the server version.
type KeepServerResolver struct{}

func (r *KeepServerResolver) Resolve(ctx context.Context, c ConflictCase) (Resolution, error) {
	return Resolution{Action: ResolveKeepServer, Reasons: []string{"server wins"}}, nil
}

// KeepLocalResolver always keeps the local version (last-write-wins).
type KeepLocalResolver struct{}

func (r *KeepLocalResolver) Resolve(ctx context.Context, c ConflictCase) (Resolution, error) {
	return Resolution{Action: ResolveKeepLocal, Reasons: []string{"local wins"}}, nil
}

// FieldMergeResolver merges per field: the server value wins on each
// conflicting field, local values are kept everywhere else. Fields
// present only on one side are preserved.
type FieldMergeResolver struct{}

func (r *FieldMergeResolver) Resolve(ctx context.Context, c ConflictCase) (Resolution, error) {
	merged := c.LocalVersion.Clone()
	if merged == nil {
		merged = Document{}
	}
	for _, field := range c.ConflictFields {
		if sv, ok := c.ServerVersion[field]; ok {
			merged[field] = cloneValue(sv)
		} else {
			delete(merged, field)
		}
	}
	return Resolution{
		Action:  ResolveMerge,
		Merged:  merged,
		Reasons: []string{"server wins on conflicting fields"},
	}, nil
}

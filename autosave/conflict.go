package autosave

// ConflictCase carries the context needed to resolve a detected conflict
// between the local document and a concurrently modified server copy.
// At most one case is outstanding at a time; it exists exactly while the
// engine status is conflict.
type ConflictCase struct {
	// ServerVersion is the server's copy at rejection time.
	ServerVersion Document

	// LocalVersion is the local document at rejection time.
	LocalVersion Document

	// ConflictFields are the top-level keys whose values differ between
	// the two versions, sorted.
	ConflictFields []string
}

func newConflictCase(local, server Document) *ConflictCase {
	return &ConflictCase{
		ServerVersion:  server.Clone(),
		LocalVersion:   local.Clone(),
		ConflictFields: DiffFields(local, server),
	}
}

func (c *ConflictCase) clone() *ConflictCase {
	if c == nil {
		return nil
	}
	fields := make([]string, len(c.ConflictFields))
	copy(fields, c.ConflictFields)
	return &ConflictCase{
		ServerVersion:  c.ServerVersion.Clone(),
		LocalVersion:   c.LocalVersion.Clone(),
		ConflictFields: fields,
	}
}

// ResolutionAction selects how a pending conflict is resolved.
type ResolutionAction string

const (
	// ResolveKeepServer adopts the server version; local edits are
	// discarded and no save is triggered.
	ResolveKeepServer ResolutionAction = "server"

	// ResolveKeepLocal forces an immediate save of the local document,
	// overriding the server copy (last-write-wins).
	ResolveKeepLocal ResolutionAction = "local"

	// ResolveMerge applies a caller-supplied merged document as a new
	// edit and immediately forces a save.
	ResolveMerge ResolutionAction = "merge"
)

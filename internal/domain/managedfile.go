package domain

// ManagedFile is one row of the replicated ID→path mapping. Files are
// soft-deleted: WasDeleted is set and the row kept, so a TUID is never
// reassigned.
type ManagedFile struct {
	ID         TUID
	Path       string // relative to the managed assets root, slash-separated
	Created    uint64 // milliseconds since epoch
	Modified   uint64 // milliseconds since epoch
	Username   string
	WasDeleted bool
}

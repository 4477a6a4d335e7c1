package ports

// RevisionControl is the surface consumed from the revision-control
// collaborator: the event log reads the current content of a named file,
// writes new revisions of its own file, and syncs before reading. A real
// client (perforce, git) would implement this; the local adapter just uses
// the filesystem.
type RevisionControl interface {
	ReadFile(path string) ([]byte, error)
	// WriteRevision replaces the named file's content as one new revision,
	// submitted with the given description.
	WriteRevision(path string, data []byte, description string) error
	// Sync brings the named file (or directory) up to date before a read.
	Sync(path string) error
}

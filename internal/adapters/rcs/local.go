package rcs

import (
	"os"
	"path/filepath"

	"assetdb/internal/ports"
)

// Local implements ports.RevisionControl directly against the filesystem.
// There is no revision history and no locking; "submit" is an atomic
// replace and Sync is a no-op. Suitable for a shared network directory or
// a single-machine setup.
type Local struct{}

var _ ports.RevisionControl = (*Local)(nil)

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteRevision replaces the file's content atomically via a temp file and
// rename, so a reader never observes a half-written log.
func (l *Local) WriteRevision(path string, data []byte, description string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (l *Local) Sync(path string) error {
	return nil
}

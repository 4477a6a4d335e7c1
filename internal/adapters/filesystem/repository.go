package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"assetdb/internal/domain"
)

// Repository scans the managed assets root on disk. It is the bulk-import
// side of the pipeline: the resolver owns which files are managed, this
// adapter reports what actually exists so the two can be reconciled.
type Repository struct {
	rootPath string
}

// NewRepository creates a filesystem repository over the managed root.
func NewRepository(rootPath string) *Repository {
	// Expand ~ to home directory
	if strings.HasPrefix(rootPath, "~") {
		home, _ := os.UserHomeDir()
		rootPath = filepath.Join(home, rootPath[1:])
	}
	return &Repository{rootPath: rootPath}
}

// Root returns the expanded managed root path.
func (r *Repository) Root() string {
	return r.rootPath
}

// ListAssetPaths walks the root and returns every file with a recognized
// asset extension, as sorted root-relative slash paths. Dot-directories
// (including the event log directory) are skipped.
func (r *Repository) ListAssetPaths() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(r.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != r.rootPath {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(r.rootPath, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if domain.ClassifyEngineType(rel) == domain.EngineTypeUnknown {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan root: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// FindUnregistered returns the on-disk asset paths missing from the given
// registered set. Input and output paths are root-relative slash paths.
func (r *Repository) FindUnregistered(registered map[string]bool) ([]string, error) {
	all, err := r.ListAssetPaths()
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, p := range all {
		if !registered[p] {
			missing = append(missing, p)
		}
	}
	return missing, nil
}

// Exists reports whether a root-relative path is present on disk.
func (r *Repository) Exists(relPath string) bool {
	_, err := os.Stat(filepath.Join(r.rootPath, filepath.FromSlash(relPath)))
	return err == nil
}

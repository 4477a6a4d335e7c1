package sqlite

import (
	"database/sql"

	"assetdb/internal/domain"
)

// TUIDs are stored as SQLite INTEGER rows; the unsigned-to-signed cast is
// lossless and reversible.
func rowID(id domain.TUID) int64 {
	return int64(id)
}

// InsertFile inserts a managed file row.
func (idx *Index) InsertFile(f *domain.ManagedFile) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.q().Exec(`
		INSERT INTO files (id, path, created, modified, username, was_deleted)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rowID(f.ID), f.Path, int64(f.Created), int64(f.Modified), nullString(f.Username), boolInt(f.WasDeleted))
	return err
}

// UpdateFile updates the path, modified stamp and deletion flag of an
// existing row.
func (idx *Index) UpdateFile(f *domain.ManagedFile) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.q().Exec(`
		UPDATE files SET path = ?, modified = ?, username = ?, was_deleted = ?
		WHERE id = ?
	`, f.Path, int64(f.Modified), nullString(f.Username), boolInt(f.WasDeleted), rowID(f.ID))
	return err
}

// MarkDeleted soft-deletes a row; it is never physically removed.
func (idx *Index) MarkDeleted(id domain.TUID, modified uint64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.q().Exec(`
		UPDATE files SET was_deleted = 1, modified = ? WHERE id = ?
	`, int64(modified), rowID(id))
	return err
}

// RestoreFile clears the deletion flag of a soft-deleted row.
func (idx *Index) RestoreFile(id domain.TUID, modified uint64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.q().Exec(`
		UPDATE files SET was_deleted = 0, modified = ? WHERE id = ?
	`, int64(modified), rowID(id))
	return err
}

const selectFileColumns = `SELECT id, path, created, modified, username, was_deleted FROM files`

func scanFile(row interface{ Scan(...any) error }) (*domain.ManagedFile, error) {
	var f domain.ManagedFile
	var id, created, modified int64
	var username sql.NullString
	var wasDeleted int

	err := row.Scan(&id, &f.Path, &created, &modified, &username, &wasDeleted)
	if err != nil {
		return nil, err
	}

	f.ID = domain.TUID(id)
	f.Created = uint64(created)
	f.Modified = uint64(modified)
	f.Username = username.String
	f.WasDeleted = wasDeleted == 1
	return &f, nil
}

// SelectFileByID retrieves a file by TUID, nil if absent. Soft-deleted rows
// are only returned when includeDeleted is set.
func (idx *Index) SelectFileByID(id domain.TUID, includeDeleted bool) (*domain.ManagedFile, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.selectFileByID(id, includeDeleted)
}

// selectFileByID is SelectFileByID for callers already holding mu.
func (idx *Index) selectFileByID(id domain.TUID, includeDeleted bool) (*domain.ManagedFile, error) {
	row := idx.q().QueryRow(selectFileColumns+`
		WHERE id = ? AND (was_deleted = 0 OR ? = 1)
	`, rowID(id), boolInt(includeDeleted))

	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

// SelectFileByPath retrieves a file by its managed-root-relative path.
func (idx *Index) SelectFileByPath(path string, includeDeleted bool) (*domain.ManagedFile, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	row := idx.q().QueryRow(selectFileColumns+`
		WHERE path = ? AND (was_deleted = 0 OR ? = 1)
		ORDER BY modified DESC LIMIT 1
	`, path, boolInt(includeDeleted))

	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

// SelectFilesByPattern retrieves files whose path matches a glob pattern,
// e.g. "*.entity.json".
func (idx *Index) SelectFilesByPattern(pattern string, includeDeleted bool) ([]*domain.ManagedFile, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	rows, err := idx.q().Query(selectFileColumns+`
		WHERE path GLOB ? AND (was_deleted = 0 OR ? = 1)
		ORDER BY path
	`, pattern, boolInt(includeDeleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFiles(rows)
}

// SearchFiles retrieves live files whose path contains the query substring.
func (idx *Index) SearchFiles(query string) ([]*domain.ManagedFile, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	rows, err := idx.q().Query(selectFileColumns+`
		WHERE path LIKE ? AND was_deleted = 0
		ORDER BY path
	`, "%"+query+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFiles(rows)
}

// Contains reports whether a TUID has a row, optionally counting
// soft-deleted rows.
func (idx *Index) Contains(id domain.TUID, includeDeleted bool) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var n int
	err := idx.q().QueryRow(`
		SELECT COUNT(1) FROM files WHERE id = ? AND (was_deleted = 0 OR ? = 1)
	`, rowID(id), boolInt(includeDeleted)).Scan(&n)
	return n > 0, err
}

func collectFiles(rows *sql.Rows) ([]*domain.ManagedFile, error) {
	var files []*domain.ManagedFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// nullString returns nil for empty strings (for nullable columns).
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

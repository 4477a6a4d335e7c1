package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"

	"assetdb/internal/domain"
)

// HasChangedOnDisk compares the file's on-disk modification time against the
// last-indexed time recorded for its TUID. A readable file with no asset row
// counts as changed. A file that cannot be stat'ed does not: crawling it
// would replace its recorded edges with an empty set, so deleted or
// unreadable files are left alone until they reappear. The comparison is
// mtime only, so a touch without modification re-crawls; a false positive,
// never a false negative.
func (idx *Index) HasChangedOnDisk(f *domain.ManagedFile) (bool, error) {
	info, err := os.Stat(filepath.Join(idx.root, filepath.FromSlash(f.Path)))
	if err != nil {
		return false, nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	var lastIndexed int64
	err = idx.q().QueryRow(`
		SELECT last_indexed FROM assets WHERE file_id = ?
	`, rowID(f.ID)).Scan(&lastIndexed)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return info.ModTime().UnixMilli() > lastIndexed, nil
}

// InsertAssetFile persists one crawl result: the asset row, its attributes
// and its dependency edges, each replaced wholesale so stale edges from an
// earlier crawl disappear. Callers run this inside a transaction so a failed
// crawl leaves the previous edge set intact.
func (idx *Index) InsertAssetFile(a *domain.AssetFile) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	q := idx.q()
	now := int64(domain.NowMillis())

	res, err := q.Exec(`
		INSERT OR REPLACE INTO assets (file_id, path, engine_type, size, last_indexed)
		VALUES (?, ?, ?, ?, ?)
	`, rowID(a.File.ID), a.File.Path, string(a.EngineType), a.Size, now)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		a.RowID = id
	}
	a.LastIndexed = uint64(now)

	if _, err := q.Exec(`DELETE FROM asset_attributes WHERE file_id = ?`, rowID(a.File.ID)); err != nil {
		return err
	}
	for name, value := range a.Attributes {
		if _, err := q.Exec(`
			INSERT INTO asset_attributes (file_id, name, value) VALUES (?, ?, ?)
		`, rowID(a.File.ID), name, value); err != nil {
			return err
		}
	}

	if _, err := q.Exec(`DELETE FROM dependencies WHERE asset_id = ?`, rowID(a.File.ID)); err != nil {
		return err
	}
	for _, dep := range a.DependencyList() {
		if _, err := q.Exec(`
			INSERT INTO dependencies (asset_id, dependency_id) VALUES (?, ?)
		`, rowID(a.File.ID), rowID(dep)); err != nil {
			return err
		}
	}

	return nil
}

// SelectAssetFile loads one asset row with its attributes and dependency
// set, nil if the asset was never indexed.
func (idx *Index) SelectAssetFile(id domain.TUID) (*domain.AssetFile, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	file, err := idx.selectFileByID(id, true)
	if err != nil || file == nil {
		return nil, err
	}

	a := domain.NewAssetFile(file)
	var engineType sql.NullString
	var lastIndexed int64
	err = idx.q().QueryRow(`
		SELECT engine_type, size, last_indexed FROM assets WHERE file_id = ?
	`, rowID(id)).Scan(&engineType, &a.Size, &lastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if engineType.Valid {
		a.EngineType = domain.EngineType(engineType.String)
	}
	a.LastIndexed = uint64(lastIndexed)

	rows, err := idx.q().Query(`
		SELECT name, value FROM asset_attributes WHERE file_id = ?
	`, rowID(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		a.Attributes[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	deps, err := idx.selectEdgeColumn(`
		SELECT dependency_id FROM dependencies WHERE asset_id = ? ORDER BY dependency_id
	`, id)
	if err != nil {
		return nil, err
	}
	for _, dep := range deps {
		a.Dependencies[dep] = struct{}{}
	}

	return a, nil
}

// SelectDependencies returns the outgoing edge set for an asset.
func (idx *Index) SelectDependencies(id domain.TUID) ([]domain.TUID, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.selectEdgeColumn(`
		SELECT dependency_id FROM dependencies WHERE asset_id = ? ORDER BY dependency_id
	`, id)
}

// SelectUsages returns the incoming edge set: every asset that depends on
// the given one.
func (idx *Index) SelectUsages(id domain.TUID) ([]domain.TUID, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.selectEdgeColumn(`
		SELECT asset_id FROM dependencies WHERE dependency_id = ? ORDER BY asset_id
	`, id)
}

// selectEdgeColumn runs a one-column edge query. Callers hold mu.
func (idx *Index) selectEdgeColumn(query string, id domain.TUID) ([]domain.TUID, error) {
	rows, err := idx.q().Query(query, rowID(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []domain.TUID
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		ids = append(ids, domain.TUID(v))
	}
	return ids, rows.Err()
}

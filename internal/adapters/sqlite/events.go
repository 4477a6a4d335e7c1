package sqlite

import "assetdb/internal/domain"

// InsertHandledEvent records an event ID as folded into the store. Inserting
// the same ID twice is a no-op, which is what makes replay idempotent.
func (idx *Index) InsertHandledEvent(id domain.TUID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.q().Exec(`
		INSERT OR IGNORE INTO handled_events (id) VALUES (?)
	`, rowID(id))
	return err
}

// HandledEvents returns the full handled set.
func (idx *Index) HandledEvents() (map[domain.TUID]bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	rows, err := idx.q().Query(`SELECT id FROM handled_events`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	handled := make(map[domain.TUID]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		handled[domain.TUID(id)] = true
	}
	return handled, rows.Err()
}

package resolver

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"assetdb/internal/application"
	"assetdb/internal/domain"
	"assetdb/internal/ports"
)

// Resolver owns the replicated ID→path mapping: local reads and writes go
// through the cache store, every mutation is also staged as an event on this
// client's log, and Update folds other clients' events back in.
//
// Mutating calls are composable inside a caller-managed transaction; the
// staged events and the pending changelist description flush on the commit
// of whoever opened the transaction. Calls are not safe for unsynchronized
// concurrent use; callers serialize access per process.
type Resolver struct {
	index  ports.CacheIndex
	log    ports.EventLog
	logger *slog.Logger

	// staged while a transaction is open, flushed on commit
	pendingEvents      []*domain.Event
	pendingDescription []string
}

func New(index ports.CacheIndex, log ports.EventLog, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{index: index, log: log, logger: logger}
}

// normalizePath canonicalizes to a slash-separated root-relative path.
func normalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// BeginTrans opens the outer transaction. Only the caller that opened it
// commits or rolls back; nested operations detect and join it.
func (r *Resolver) BeginTrans() error {
	return r.index.BeginTrans()
}

// CommitTrans writes the staged events to this client's log, marks them
// handled so reconciliation never re-applies our own work, and commits the
// store. The event write happens first: losing a local commit is
// recoverable by replay, losing the event is not.
func (r *Resolver) CommitTrans() error {
	if len(r.pendingEvents) > 0 {
		if err := r.log.WriteEvents(r.pendingEvents, strings.Join(r.pendingDescription, "\n")); err != nil {
			r.RollbackTrans()
			return fmt.Errorf("failed to write events: %w", err)
		}
		for _, ev := range r.pendingEvents {
			if err := r.index.InsertHandledEvent(ev.ID); err != nil {
				r.RollbackTrans()
				return fmt.Errorf("failed to mark event handled: %w", err)
			}
		}
	}

	if err := r.index.CommitTrans(); err != nil {
		return err
	}
	r.pendingEvents = nil
	r.pendingDescription = nil
	return nil
}

// RollbackTrans discards the transaction and everything staged under it.
func (r *Resolver) RollbackTrans() error {
	r.pendingEvents = nil
	r.pendingDescription = nil
	return r.index.RollbackTrans()
}

// IsTransOpen reports whether a caller-managed transaction is open.
func (r *Resolver) IsTransOpen() bool {
	return r.index.IsTransOpen()
}

// withTrans runs fn inside the open transaction if there is one, otherwise
// inside its own, committing or rolling back as the opener.
func (r *Resolver) withTrans(fn func() error) error {
	if r.index.IsTransOpen() {
		return fn()
	}

	if err := r.BeginTrans(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		r.RollbackTrans()
		return err
	}
	return r.CommitTrans()
}

// stageEvent queues a patch record for this client's log, written when the
// enclosing transaction commits.
func (r *Resolver) stageEvent(record *domain.PatchRecord, description string) {
	r.pendingEvents = append(r.pendingEvents, r.log.CreateEvent(record.Encode()))
	r.pendingDescription = append(r.pendingDescription, description)
}

// AddEntry binds a path to an ID. With requestedID == TUIDNull a fresh ID
// is generated. Re-adding an identical binding is a no-op returning the
// existing ID; binding a path or ID that is already live under a different
// partner fails with DuplicateEntry. Re-adding a soft-deleted binding
// restores it. With createEvent set the mutation replicates to other
// clients; without it the write is local only (used during reconciliation
// tooling and tests).
func (r *Resolver) AddEntry(filePath string, requestedID domain.TUID, createEvent bool) (domain.TUID, error) {
	filePath = normalizePath(filePath)
	id := requestedID

	err := r.withTrans(func() error {
		existing, err := r.index.SelectFileByPath(filePath, false)
		if err != nil {
			return err
		}
		if existing != nil {
			if requestedID == domain.TUIDNull || requestedID == existing.ID {
				id = existing.ID
				return nil
			}
			return &application.DuplicateEntryError{
				ID:           requestedID,
				Path:         filePath,
				ExistingPath: existing.Path,
			}
		}

		if id == domain.TUIDNull {
			id = domain.GenerateTUID()
		} else {
			byID, err := r.index.SelectFileByID(id, true)
			if err != nil {
				return err
			}
			if byID != nil {
				if byID.Path != filePath {
					return &application.DuplicateEntryError{
						ID:           id,
						Path:         filePath,
						ExistingPath: byID.Path,
					}
				}
				// Same binding, tombstoned: restore it.
				now := domain.NowMillis()
				if err := r.index.RestoreFile(id, now); err != nil {
					return err
				}
				if createEvent {
					r.stageEvent(&domain.PatchRecord{
						Operation: domain.PatchInsert,
						Created:   byID.Created,
						Modified:  now,
						ID:        id,
						Path:      filePath,
					}, fmt.Sprintf("restore %s (%s)", filePath, id.Hex()))
				}
				return nil
			}
		}

		now := domain.NowMillis()
		file := &domain.ManagedFile{
			ID:       id,
			Path:     filePath,
			Created:  now,
			Modified: now,
			Username: r.authorName(),
		}
		if err := r.index.InsertFile(file); err != nil {
			return err
		}

		if createEvent {
			r.stageEvent(&domain.PatchRecord{
				Operation: domain.PatchInsert,
				Created:   now,
				Modified:  now,
				ID:        id,
				Path:      filePath,
			}, fmt.Sprintf("add %s (%s)", filePath, id.Hex()))
		}
		return nil
	})
	if err != nil {
		return domain.TUIDNull, err
	}
	return id, nil
}

// UpdateEntry rebinds a file to a new path, the move operation.
func (r *Resolver) UpdateEntry(file *domain.ManagedFile, newPath string, createEvent bool) (domain.TUID, error) {
	newPath = normalizePath(newPath)

	err := r.withTrans(func() error {
		occupant, err := r.index.SelectFileByPath(newPath, false)
		if err != nil {
			return err
		}
		if occupant != nil && occupant.ID != file.ID {
			return &application.DuplicateEntryError{
				ID:           file.ID,
				Path:         newPath,
				ExistingPath: occupant.Path,
			}
		}

		oldPath := file.Path
		file.Path = newPath
		file.Modified = domain.NowMillis()
		if err := r.index.UpdateFile(file); err != nil {
			return err
		}

		if createEvent {
			r.stageEvent(&domain.PatchRecord{
				Operation: domain.PatchUpdate,
				Created:   file.Created,
				Modified:  file.Modified,
				ID:        file.ID,
				Path:      newPath,
			}, fmt.Sprintf("move %s -> %s (%s)", oldPath, newPath, file.ID.Hex()))
		}
		return nil
	})
	if err != nil {
		return domain.TUIDNull, err
	}
	return file.ID, nil
}

// DeleteEntry tombstones a file. The row is kept so the ID is never reused.
func (r *Resolver) DeleteEntry(file *domain.ManagedFile, createEvent bool) error {
	return r.withTrans(func() error {
		now := domain.NowMillis()
		if err := r.index.MarkDeleted(file.ID, now); err != nil {
			return err
		}
		file.WasDeleted = true
		file.Modified = now

		if createEvent {
			r.stageEvent(&domain.PatchRecord{
				Operation: domain.PatchDelete,
				Created:   file.Created,
				Modified:  now,
				ID:        file.ID,
				Path:      file.Path,
			}, fmt.Sprintf("delete %s (%s)", file.Path, file.ID.Hex()))
		}
		return nil
	})
}

// GetFileByID is a pure local-cache read; it never touches the event log.
func (r *Resolver) GetFileByID(id domain.TUID, includeDeleted bool) (*domain.ManagedFile, error) {
	return r.index.SelectFileByID(id, includeDeleted)
}

// GetFileByPath is a pure local-cache read.
func (r *Resolver) GetFileByPath(p string, includeDeleted bool) (*domain.ManagedFile, error) {
	return r.index.SelectFileByPath(normalizePath(p), includeDeleted)
}

// Contains reports whether an ID has a binding.
func (r *Resolver) Contains(id domain.TUID, includeDeleted bool) (bool, error) {
	return r.index.Contains(id, includeDeleted)
}

// FindFilesByPattern returns live files whose path matches a glob pattern.
func (r *Resolver) FindFilesByPattern(pattern string) ([]*domain.ManagedFile, error) {
	return r.index.SelectFilesByPattern(pattern, false)
}

// SearchFiles returns live files whose path contains the query substring.
func (r *Resolver) SearchFiles(query string) ([]*domain.ManagedFile, error) {
	return r.index.SearchFiles(query)
}

func (r *Resolver) authorName() string {
	// EventsFilePath is "<dir>/<author>.event.txt"
	base := path.Base(strings.ReplaceAll(r.log.EventsFilePath(), "\\", "/"))
	return strings.TrimSuffix(base, ".event.txt")
}

// Update is the reconciliation step: fetch every event not yet handled, in
// deterministic order, and fold each into the cache store. The whole batch
// runs in one transaction; a store failure rolls the batch back to be
// retried on the next call. Per-event failures are isolated: a payload that
// does not parse is skipped and left unhandled so it retries every pass,
// and a conflicting insert is reported, marked handled and never applied.
func (r *Resolver) Update() (*domain.ReconcileStats, error) {
	start := time.Now()
	stats := &domain.ReconcileStats{}

	handled, err := r.index.HandledEvents()
	if err != nil {
		return stats, err
	}
	events, err := r.log.GetUnhandledEvents(handled)
	if err != nil {
		return stats, err
	}
	stats.EventsSeen = len(events)
	if len(events) == 0 {
		stats.Duration = time.Since(start)
		return stats, nil
	}

	if err := r.index.BeginTrans(); err != nil {
		return stats, err
	}

	for _, ev := range events {
		record, err := domain.ParsePatchRecord(ev.Data)
		if err != nil {
			// Left unhandled on purpose: a poison event retries every
			// pass until fixed or discarded by an operator.
			r.logger.Warn("skipping unparseable event",
				"event", ev.ID.Hex(), "author", ev.Username, "error", err)
			stats.Skipped++
			continue
		}

		applied, conflictErr, storeErr := r.applyPatch(record)
		if storeErr != nil {
			r.index.RollbackTrans()
			return stats, fmt.Errorf("failed to apply event %s: %w", ev.ID.Hex(), storeErr)
		}
		if conflictErr != nil {
			r.logger.Warn("conflicting event not applied",
				"event", ev.ID.Hex(), "author", ev.Username, "error", conflictErr)
			stats.Conflicts++
		} else if applied {
			stats.Applied++
		} else {
			stats.Skipped++
		}

		if err := r.index.InsertHandledEvent(ev.ID); err != nil {
			r.index.RollbackTrans()
			return stats, fmt.Errorf("failed to mark event %s handled: %w", ev.ID.Hex(), err)
		}
	}

	if err := r.index.CommitTrans(); err != nil {
		return stats, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// applyPatch folds one record into the store. Returns whether the record
// changed state, a conflict to report, or a store error that must abort
// the batch.
func (r *Resolver) applyPatch(record *domain.PatchRecord) (applied bool, conflict, storeErr error) {
	existing, err := r.index.SelectFileByID(record.ID, true)
	if err != nil {
		return false, nil, err
	}

	switch record.Operation {
	case domain.PatchInsert:
		if existing == nil {
			return true, nil, r.index.InsertFile(&domain.ManagedFile{
				ID:       record.ID,
				Path:     record.Path,
				Created:  record.Created,
				Modified: record.Modified,
			})
		}
		if existing.WasDeleted {
			// Delete wins over a stale insert; only a strictly newer
			// insert reads as a deliberate restore.
			if record.Modified <= existing.Modified {
				return false, nil, nil
			}
			existing.Path = record.Path
			existing.Modified = record.Modified
			existing.WasDeleted = false
			return true, nil, r.index.UpdateFile(existing)
		}
		if existing.Path == record.Path {
			return false, nil, nil
		}
		return false, &application.DuplicateEntryError{
			ID:           record.ID,
			Path:         record.Path,
			ExistingPath: existing.Path,
		}, nil

	case domain.PatchUpdate:
		if existing == nil {
			// An update for a row we never saw inserts it, so replay
			// order across authors cannot strand a rename.
			return true, nil, r.index.InsertFile(&domain.ManagedFile{
				ID:       record.ID,
				Path:     record.Path,
				Created:  record.Created,
				Modified: record.Modified,
			})
		}
		if existing.WasDeleted && record.Modified <= existing.Modified {
			return false, nil, nil
		}
		if !existing.WasDeleted && record.Modified < existing.Modified {
			return false, nil, nil
		}
		existing.Path = record.Path
		existing.Modified = record.Modified
		existing.WasDeleted = false
		return true, nil, r.index.UpdateFile(existing)

	case domain.PatchDelete:
		if existing == nil {
			// Tombstone first so a stale insert arriving later still
			// loses.
			return true, nil, r.index.InsertFile(&domain.ManagedFile{
				ID:         record.ID,
				Path:       record.Path,
				Created:    record.Created,
				Modified:   record.Modified,
				WasDeleted: true,
			})
		}
		if existing.WasDeleted {
			return false, nil, nil
		}
		return true, nil, r.index.MarkDeleted(record.ID, record.Modified)

	default:
		return false, nil, fmt.Errorf("%w: %d", domain.ErrBadPatchOperation, int(record.Operation))
	}
}

// Recreate drops and rebuilds the cache store from the full event history.
// The handled set goes with the tables, so the following Update replays
// everything, including this client's own events.
func (r *Resolver) Recreate() (*domain.ReconcileStats, error) {
	if err := r.index.Recreate(); err != nil {
		return nil, err
	}
	return r.Update()
}

package ports

import "assetdb/internal/domain"

// CacheIndex is the local transactional cache store shared by the identity
// resolver and the dependency tracker. It is owned exclusively by one
// process; cross-client consistency is the event log's job, not this
// store's.
//
// Transactions are single and explicit: composable operations check
// IsTransOpen first and only the opener commits or rolls back. A BeginTrans
// racing a transaction opened by another goroutine waits for it to finish.
// Implementations must be safe for concurrent use; the tracker thread and
// interactive readers share one store.
type CacheIndex interface {
	// Lifecycle
	Open(root string) error
	Close() error
	// Root is the managed assets root the store was opened for.
	Root() string
	// NeedsRecreate reports a schema-version or root mismatch; the caller
	// should Recreate and replay the event history.
	NeedsRecreate() bool
	// Recreate drops and reinitializes every table, including the handled
	// event set.
	Recreate() error

	// Transaction control
	BeginTrans() error
	CommitTrans() error
	RollbackTrans() error
	IsTransOpen() bool

	// Managed file rows
	InsertFile(f *domain.ManagedFile) error
	UpdateFile(f *domain.ManagedFile) error
	MarkDeleted(id domain.TUID, modified uint64) error
	RestoreFile(id domain.TUID, modified uint64) error
	SelectFileByID(id domain.TUID, includeDeleted bool) (*domain.ManagedFile, error)
	SelectFileByPath(path string, includeDeleted bool) (*domain.ManagedFile, error)
	SelectFilesByPattern(pattern string, includeDeleted bool) ([]*domain.ManagedFile, error)
	SearchFiles(query string) ([]*domain.ManagedFile, error)
	Contains(id domain.TUID, includeDeleted bool) (bool, error)

	// Handled event set, for idempotent replay
	InsertHandledEvent(id domain.TUID) error
	HandledEvents() (map[domain.TUID]bool, error)

	// Dependency cache
	HasChangedOnDisk(f *domain.ManagedFile) (bool, error)
	InsertAssetFile(a *domain.AssetFile) error
	SelectAssetFile(id domain.TUID) (*domain.AssetFile, error)
	SelectDependencies(id domain.TUID) ([]domain.TUID, error)
	SelectUsages(id domain.TUID) ([]domain.TUID, error)
}

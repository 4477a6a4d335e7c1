package application

import (
	"errors"
	"fmt"

	"assetdb/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEntry   = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("cache store unavailable")
)

// Payload parse sentinels, re-exported so adapters can errors.Is against
// the application layer alone.
var (
	ErrBadPatchRecord    = domain.ErrBadPatchRecord
	ErrBadPatchOperation = domain.ErrBadPatchOperation
)

// DuplicateEntryError reports an attempt to bind a TUID that is already
// bound to a different path. The existing binding always wins.
type DuplicateEntryError struct {
	ID           domain.TUID
	Path         string
	ExistingPath string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("id %s already maps to %q, cannot bind %q",
		e.ID.Hex(), e.ExistingPath, e.Path)
}

func (e *DuplicateEntryError) Is(target error) bool {
	return target == ErrDuplicateEntry
}

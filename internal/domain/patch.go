package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PatchOperation is the kind of mutation a PatchRecord replicates.
type PatchOperation int

const (
	PatchInsert PatchOperation = iota
	PatchUpdate
	PatchDelete
)

var patchOpNames = map[PatchOperation]string{
	PatchInsert: "Insert",
	PatchUpdate: "Update",
	PatchDelete: "Delete",
}

func (op PatchOperation) String() string {
	if name, ok := patchOpNames[op]; ok {
		return name
	}
	return fmt.Sprintf("PatchOperation(%d)", int(op))
}

// Sentinel errors for event payload parsing. A record that fails with one of
// these is never marked handled; it is retried every reconciliation pass.
var (
	ErrBadPatchRecord    = errors.New("malformed patch record")
	ErrBadPatchOperation = errors.New("unrecognized patch operation")
)

// PatchRecord is the atomic unit of replication: one Insert/Update/Delete of
// the ID→path mapping. Immutable once written to an event log.
type PatchRecord struct {
	Operation PatchOperation
	Created   uint64
	Modified  uint64
	ID        TUID
	Path      string
}

// Encode renders the stable pipe-delimited wire form:
//
//	<operation:int>|<createdAt:uint64>|<modifiedAt:uint64>|<id:uint64>|<path>
func (r *PatchRecord) Encode() string {
	return fmt.Sprintf("%d|%d|%d|%d|%s",
		int(r.Operation), r.Created, r.Modified, uint64(r.ID), r.Path)
}

// HumanString renders the export form: operation by name, ID in hex, the
// whole line prefixed so export files are self-describing.
func (r *PatchRecord) HumanString() string {
	return fmt.Sprintf("Data:  %s|%d|%d|%s|%s",
		r.Operation, r.Created, r.Modified, r.ID.Hex(), r.Path)
}

// ParseHumanPatchRecord decodes a HumanString line back into a record, so an
// exported history can be loaded again after hand repair.
func ParseHumanPatchRecord(s string) (*PatchRecord, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "Data:"))

	parts := strings.SplitN(s, "|", 5)
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: %q", ErrBadPatchRecord, s)
	}

	var op PatchOperation
	found := false
	for candidate, name := range patchOpNames {
		if name == parts[0] {
			op = candidate
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrBadPatchOperation, parts[0])
	}

	created, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: created %q", ErrBadPatchRecord, parts[1])
	}
	modified, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: modified %q", ErrBadPatchRecord, parts[2])
	}
	id, err := ParseTUID(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", ErrBadPatchRecord, parts[3])
	}
	if parts[4] == "" {
		return nil, fmt.Errorf("%w: empty path", ErrBadPatchRecord)
	}

	return &PatchRecord{
		Operation: op,
		Created:   created,
		Modified:  modified,
		ID:        id,
		Path:      parts[4],
	}, nil
}

// ParsePatchRecord decodes the wire form. The path field is last and may
// itself contain pipes.
func ParsePatchRecord(s string) (*PatchRecord, error) {
	parts := strings.SplitN(s, "|", 5)
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: %q", ErrBadPatchRecord, s)
	}

	opNum, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: operation %q", ErrBadPatchRecord, parts[0])
	}
	op := PatchOperation(opNum)
	if _, ok := patchOpNames[op]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadPatchOperation, opNum)
	}

	created, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: created %q", ErrBadPatchRecord, parts[1])
	}
	modified, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: modified %q", ErrBadPatchRecord, parts[2])
	}
	idNum, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", ErrBadPatchRecord, parts[3])
	}
	if parts[4] == "" {
		return nil, fmt.Errorf("%w: empty path", ErrBadPatchRecord)
	}

	return &PatchRecord{
		Operation: op,
		Created:   created,
		Modified:  modified,
		ID:        TUID(idNum),
		Path:      parts[4],
	}, nil
}

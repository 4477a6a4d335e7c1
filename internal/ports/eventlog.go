package ports

import (
	"io"

	"assetdb/internal/domain"
)

// EventLog is the append-only replication medium. Each client appends only
// to its own author file; readers merge every author's file. Events are
// never mutated or removed.
type EventLog interface {
	// CreateEvent stamps a new event for this client's author identity.
	// The event is not written until WriteEvents.
	CreateEvent(data string) *domain.Event

	// WriteEvents appends events to this client's own log file, submitting
	// the new revision with the given description.
	WriteEvents(events []*domain.Event, description string) error

	// GetEvents returns every event from every author, unsorted.
	GetEvents() ([]*domain.Event, error)

	// GetUnhandledEvents returns every event not in the handled set, in
	// deterministic replay order.
	GetUnhandledEvents(handled map[domain.TUID]bool) ([]*domain.Event, error)

	// EventsFilePath is this client's own log file.
	EventsFilePath() string

	// ExportHuman writes the full merged history in the human-readable
	// export format.
	ExportHuman(w io.Writer) error
}

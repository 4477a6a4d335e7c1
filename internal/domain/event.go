package domain

import (
	"sort"
	"time"
)

// Event wraps a PatchRecord payload in a replication envelope. Events are
// appended to the author's log file and never mutated; any client may read
// them any number of times.
type Event struct {
	ID       TUID
	Created  uint64 // milliseconds since epoch
	Username string
	Data     string // encoded PatchRecord
}

// NewEvent stamps a fresh event for the given author.
func NewEvent(username, data string) *Event {
	return &Event{
		ID:       GenerateTUID(),
		Created:  NowMillis(),
		Username: username,
		Data:     data,
	}
}

// NowMillis is the timestamp resolution used on all events and patch records.
func NowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

// SortEvents orders events deterministically: by creation time, ties broken
// by event ID. Two clients sorting the same event set get the same order,
// which is what makes replay converge.
func SortEvents(events []*Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Created != events[j].Created {
			return events[i].Created < events[j].Created
		}
		return events[i].ID < events[j].ID
	})
}

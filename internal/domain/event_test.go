package domain

import "testing"

func TestSortEvents(t *testing.T) {
	events := []*Event{
		{ID: 3, Created: 200},
		{ID: 2, Created: 100},
		{ID: 1, Created: 200},
		{ID: 4, Created: 50},
	}

	SortEvents(events)

	wantOrder := []TUID{4, 2, 1, 3}
	for i, want := range wantOrder {
		if events[i].ID != want {
			t.Fatalf("position %d: got %s, want %s", i, events[i].ID, want)
		}
	}
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("rachel-RMARK_PC", "0|1|2|3|some/path")
	if ev.ID == TUIDNull {
		t.Error("event ID is the null sentinel")
	}
	if ev.Created == 0 {
		t.Error("event not timestamped")
	}
	if ev.Username != "rachel-RMARK_PC" {
		t.Errorf("username not carried: %q", ev.Username)
	}
}

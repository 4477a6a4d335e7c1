package resolver

import (
	"errors"
	"testing"

	"assetdb/internal/adapters/eventlog"
	"assetdb/internal/adapters/rcs"
	"assetdb/internal/adapters/sqlite"
	"assetdb/internal/application"
	"assetdb/internal/domain"
)

// newClient builds a resolver over a real store and a shared events
// directory, simulating one workstation.
func newClient(t *testing.T, eventsDir, author string) *Resolver {
	t.Helper()

	idx := sqlite.NewIndex()
	if err := idx.Open(t.TempDir()); err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	log := eventlog.New(eventsDir, author, rcs.NewLocal(), nil)
	return New(idx, log, nil)
}

func TestAddGetDeleteContains(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	r := newClient(t, t.TempDir(), "alice-desk")

	id, err := r.AddEntry("foo/bar.entity.json", domain.TUIDNull, true)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if id == domain.TUIDNull {
		t.Fatal("add returned the null ID")
	}

	byID, err := r.GetFileByID(id, false)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if byID == nil || byID.Path != "foo/bar.entity.json" {
		t.Fatalf("get by id returned %+v", byID)
	}

	byPath, err := r.GetFileByPath("foo/bar.entity.json", false)
	if err != nil {
		t.Fatalf("get by path failed: %v", err)
	}
	if byPath == nil || byPath.ID != id {
		t.Fatalf("get by path returned %+v", byPath)
	}

	if err := r.DeleteEntry(byID, true); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	deleted, err := r.GetFileByID(id, true)
	if err != nil {
		t.Fatalf("get deleted failed: %v", err)
	}
	if deleted == nil || !deleted.WasDeleted {
		t.Fatalf("expected tombstone, got %+v", deleted)
	}

	live, err := r.Contains(id, false)
	if err != nil {
		t.Fatalf("contains failed: %v", err)
	}
	if live {
		t.Error("deleted file reported as live")
	}
	any, err := r.Contains(id, true)
	if err != nil {
		t.Fatalf("contains failed: %v", err)
	}
	if !any {
		t.Error("deleted file should still have a row")
	}
}

func TestAddIsIdempotentForSameBinding(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	r := newClient(t, t.TempDir(), "alice-desk")

	first, err := r.AddEntry("props/crate.entity.json", domain.TUIDNull, true)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	second, err := r.AddEntry("props/crate.entity.json", domain.TUIDNull, true)
	if err != nil {
		t.Fatalf("re-add failed: %v", err)
	}
	if first != second {
		t.Errorf("re-add minted a new ID: %s vs %s", first.Hex(), second.Hex())
	}
}

func TestDuplicateIDConflict(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	r := newClient(t, t.TempDir(), "alice-desk")

	const id = domain.TUID(0x1111)
	if _, err := r.AddEntry("pathA.tga", id, true); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	_, err := r.AddEntry("pathB.tga", id, true)
	if !errors.Is(err, application.ErrDuplicateEntry) {
		t.Fatalf("expected duplicate entry error, got %v", err)
	}

	got, err := r.GetFileByID(id, false)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.Path != "pathA.tga" {
		t.Errorf("binding should be untouched, got %+v", got)
	}
}

func TestReaddRestoresDeletedBinding(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	r := newClient(t, t.TempDir(), "alice-desk")

	id, err := r.AddEntry("props/door.entity.json", domain.TUIDNull, true)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	file, err := r.GetFileByID(id, false)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if err := r.DeleteEntry(file, true); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	restored, err := r.AddEntry("props/door.entity.json", id, true)
	if err != nil {
		t.Fatalf("re-add failed: %v", err)
	}
	if restored != id {
		t.Fatalf("restore minted a new ID: %s", restored.Hex())
	}
	got, err := r.GetFileByID(id, false)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.WasDeleted {
		t.Errorf("expected restored live row, got %+v", got)
	}
}

func TestReconcileAcrossClients(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	eventsDir := t.TempDir()

	alice := newClient(t, eventsDir, "alice-desk")
	bob := newClient(t, eventsDir, "bob-laptop")

	id, err := alice.AddEntry("levels/city.world.json", domain.TUIDNull, true)
	if err != nil {
		t.Fatalf("alice add failed: %v", err)
	}

	// Bob sees nothing until he reconciles.
	got, err := bob.GetFileByID(id, false)
	if err != nil {
		t.Fatalf("bob get failed: %v", err)
	}
	if got != nil {
		t.Fatal("bob saw the file before reconciling")
	}

	stats, err := bob.Update()
	if err != nil {
		t.Fatalf("bob update failed: %v", err)
	}
	if stats.Applied != 1 {
		t.Errorf("expected 1 applied event, got %+v", stats)
	}

	got, err = bob.GetFileByID(id, false)
	if err != nil {
		t.Fatalf("bob get failed: %v", err)
	}
	if got == nil || got.Path != "levels/city.world.json" {
		t.Fatalf("bob's store did not converge: %+v", got)
	}

	// Replaying is a no-op: the handled set filters everything.
	stats, err = bob.Update()
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if stats.Applied != 0 || stats.EventsSeen != 0 {
		t.Errorf("replay was not idempotent: %+v", stats)
	}
}

func TestOwnEventsNotReapplied(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	r := newClient(t, t.TempDir(), "alice-desk")

	if _, err := r.AddEntry("a.tga", domain.TUIDNull, true); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	stats, err := r.Update()
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if stats.EventsSeen != 0 {
		t.Errorf("own events should be pre-handled, got %+v", stats)
	}
}

func TestOrderIndependentConvergence(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	eventsDir := t.TempDir()

	// Two authors produce the history, two fresh readers replay it.
	alice := newClient(t, eventsDir, "alice-desk")
	bob := newClient(t, eventsDir, "bob-laptop")

	const id = domain.TUID(0x2222)
	if _, err := alice.AddEntry("old/name.entity.json", id, true); err != nil {
		t.Fatalf("alice add failed: %v", err)
	}
	if _, err := bob.Update(); err != nil {
		t.Fatalf("bob update failed: %v", err)
	}
	file, err := bob.GetFileByID(id, false)
	if err != nil || file == nil {
		t.Fatalf("bob get failed: %v %v", file, err)
	}
	if _, err := bob.UpdateEntry(file, "new/name.entity.json", true); err != nil {
		t.Fatalf("bob move failed: %v", err)
	}

	carol := newClient(t, eventsDir, "carol-pc")
	dave := newClient(t, eventsDir, "dave-pc")
	for _, client := range []*Resolver{carol, dave} {
		if _, err := client.Update(); err != nil {
			t.Fatalf("replay failed: %v", err)
		}
	}

	cFile, err := carol.GetFileByID(id, true)
	if err != nil || cFile == nil {
		t.Fatalf("carol get failed: %v %v", cFile, err)
	}
	dFile, err := dave.GetFileByID(id, true)
	if err != nil || dFile == nil {
		t.Fatalf("dave get failed: %v %v", dFile, err)
	}
	if *cFile != *dFile {
		t.Errorf("stores diverged: %+v vs %+v", cFile, dFile)
	}
	if cFile.Path != "new/name.entity.json" {
		t.Errorf("expected the rename to win, got %q", cFile.Path)
	}
}

func TestDeletePrecedence(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	eventsDir := t.TempDir()

	alice := newClient(t, eventsDir, "alice-desk")
	const id = domain.TUID(0x3333)

	if _, err := alice.AddEntry("doomed.tga", id, true); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	file, err := alice.GetFileByID(id, false)
	if err != nil || file == nil {
		t.Fatalf("get failed: %v %v", file, err)
	}
	if err := alice.DeleteEntry(file, true); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// A fresh reader replays insert then delete and lands on the tombstone.
	bob := newClient(t, eventsDir, "bob-laptop")
	if _, err := bob.Update(); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err := bob.GetFileByID(id, true)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || !got.WasDeleted {
		t.Fatalf("expected WasDeleted, got %+v", got)
	}
}

func TestStaleInsertLosesToDelete(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	eventsDir := t.TempDir()
	store := rcs.NewLocal()

	// Hand-build a history where the stale insert sorts after the delete.
	const id = domain.TUID(0x4444)
	insert := domain.PatchRecord{
		Operation: domain.PatchInsert,
		Created:   1000, Modified: 1000,
		ID: id, Path: "zombie.tga",
	}
	del := domain.PatchRecord{
		Operation: domain.PatchDelete,
		Created:   1000, Modified: 2000,
		ID: id, Path: "zombie.tga",
	}
	mallory := eventlog.New(eventsDir, "mallory-host", store, nil)
	events := []*domain.Event{
		{ID: 2, Created: 5000, Username: "mallory-host", Data: del.Encode()},
		{ID: 3, Created: 6000, Username: "mallory-host", Data: insert.Encode()},
	}
	if err := mallory.WriteEvents(events, ""); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r := newClient(t, eventsDir, "alice-desk")
	if _, err := r.Update(); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := r.GetFileByID(id, true)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || !got.WasDeleted {
		t.Fatalf("delete should win over the stale insert, got %+v", got)
	}
}

func TestConflictingInsertReportedNotApplied(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	eventsDir := t.TempDir()
	store := rcs.NewLocal()

	const id = domain.TUID(0x5555)
	a := domain.PatchRecord{Operation: domain.PatchInsert, Created: 1000, Modified: 1000, ID: id, Path: "first.tga"}
	b := domain.PatchRecord{Operation: domain.PatchInsert, Created: 2000, Modified: 2000, ID: id, Path: "second.tga"}
	mallory := eventlog.New(eventsDir, "mallory-host", store, nil)
	events := []*domain.Event{
		{ID: 1, Created: 1000, Username: "mallory-host", Data: a.Encode()},
		{ID: 2, Created: 2000, Username: "mallory-host", Data: b.Encode()},
	}
	if err := mallory.WriteEvents(events, ""); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r := newClient(t, eventsDir, "alice-desk")
	stats, err := r.Update()
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if stats.Applied != 1 || stats.Conflicts != 1 {
		t.Errorf("expected 1 applied + 1 conflict, got %+v", stats)
	}

	got, err := r.GetFileByID(id, false)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.Path != "first.tga" {
		t.Errorf("first binding should stand, got %+v", got)
	}

	// The conflict was recorded as handled and does not resurface.
	stats, err = r.Update()
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if stats.EventsSeen != 0 {
		t.Errorf("conflict re-reported: %+v", stats)
	}
}

func TestMalformedEventRetriedEveryPass(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	eventsDir := t.TempDir()
	store := rcs.NewLocal()

	mallory := eventlog.New(eventsDir, "mallory-host", store, nil)
	events := []*domain.Event{
		{ID: 1, Created: 1000, Username: "mallory-host", Data: "9|not|a|patch|record"},
	}
	if err := mallory.WriteEvents(events, ""); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r := newClient(t, eventsDir, "alice-desk")
	for pass := 0; pass < 2; pass++ {
		stats, err := r.Update()
		if err != nil {
			t.Fatalf("update pass %d failed: %v", pass, err)
		}
		if stats.EventsSeen != 1 || stats.Skipped != 1 {
			t.Errorf("pass %d: poison event should be seen and skipped, got %+v", pass, stats)
		}
	}
}

func TestRecreateReplaysFullHistory(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	r := newClient(t, t.TempDir(), "alice-desk")

	id, err := r.AddEntry("props/crate.entity.json", domain.TUIDNull, true)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	stats, err := r.Recreate()
	if err != nil {
		t.Fatalf("recreate failed: %v", err)
	}
	if stats.Applied != 1 {
		t.Errorf("recreate should replay own history, got %+v", stats)
	}

	got, err := r.GetFileByID(id, false)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.Path != "props/crate.entity.json" {
		t.Errorf("store not rebuilt: %+v", got)
	}
}

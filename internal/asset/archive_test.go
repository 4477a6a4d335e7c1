package asset

import (
	"os"
	"path/filepath"
	"testing"

	"assetdb/internal/domain"
)

func TestArchiveRoundTrip(t *testing.T) {
	e := NewElement("Asset.Entity").
		AddFileRef("artFile", domain.TUID(0x10)).
		AddFileRefs("shaders", domain.TUID(0x20), domain.TUID(0x21)).
		AddChild("components", NewElement("Asset.Transform").AddValue("scale", "1.0")).
		AddValues("tags", "hero", "player").
		AddDiscard("editorNotes", "wip")

	path := filepath.Join(t.TempDir(), "sub", "hero.entity.json")
	if err := ToFile(path, e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := FromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Type != "Asset.Entity" {
		t.Errorf("type: got %q", got.Type)
	}
	if f := got.Field("artFile"); f == nil || f.ID != domain.TUID(0x10) || f.Flags&FlagFileRef == 0 {
		t.Errorf("artFile field not preserved: %+v", f)
	}
	if f := got.Field("shaders"); f == nil || len(f.IDs) != 2 || f.Flags&FlagFileRefCollection == 0 {
		t.Errorf("shaders field not preserved: %+v", f)
	}
	if f := got.Field("components"); f == nil || len(f.Elements) != 1 || f.Elements[0].Type != "Asset.Transform" {
		t.Errorf("nested element not preserved: %+v", f)
	}
	if f := got.Field("tags"); f == nil || len(f.Values) != 2 {
		t.Errorf("values field not preserved: %+v", f)
	}
	if f := got.Field("editorNotes"); f == nil || f.Flags&FlagDiscard == 0 {
		t.Errorf("discard flag not preserved: %+v", f)
	}
}

func TestFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := FromFile(filepath.Join(dir, "missing.entity.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.entity.json")
	os.WriteFile(bad, []byte("not json"), 0644)
	if _, err := FromFile(bad); err == nil {
		t.Error("expected error for malformed archive")
	}

	untyped := filepath.Join(dir, "untyped.entity.json")
	os.WriteFile(untyped, []byte(`{"fields":[]}`), 0644)
	if _, err := FromFile(untyped); err == nil {
		t.Error("expected error for archive without a type")
	}
}

func TestHostVisitsEveryField(t *testing.T) {
	e := NewElement("Asset.Entity").
		AddFileRef("a", 1).
		AddValue("b", "x").
		AddDiscard("c", "y")

	var visited []string
	v := &recordingVisitor{onField: func(f *Field) { visited = append(visited, f.Name) }}
	e.Host(v)

	if len(visited) != 3 {
		t.Fatalf("visited %v, want all three fields", visited)
	}
}

type recordingVisitor struct {
	onField func(f *Field)
}

func (v *recordingVisitor) VisitElement(e *Element) bool { return true }

func (v *recordingVisitor) VisitField(e *Element, f *Field) bool {
	v.onField(f)
	return true
}

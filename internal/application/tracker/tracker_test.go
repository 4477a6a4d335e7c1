package tracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"assetdb/internal/adapters/eventlog"
	"assetdb/internal/adapters/rcs"
	"assetdb/internal/adapters/sqlite"
	"assetdb/internal/application/resolver"
	"assetdb/internal/asset"
	"assetdb/internal/domain"
	"assetdb/internal/ports"
)

// countingIndex counts dependency-cache writes so tests can assert the
// incremental skip path performs none.
type countingIndex struct {
	ports.CacheIndex
	assetWrites int
}

func (c *countingIndex) InsertAssetFile(a *domain.AssetFile) error {
	c.assetWrites++
	return c.CacheIndex.InsertAssetFile(a)
}

type env struct {
	root string
	res  *resolver.Resolver
	idx  *countingIndex
	tr   *Tracker
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	root := t.TempDir()
	idx := sqlite.NewIndex()
	if err := idx.Open(root); err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	counting := &countingIndex{CacheIndex: idx}
	res := resolver.New(counting, eventlog.New(t.TempDir(), "tester-host", rcs.NewLocal(), nil), nil)
	tr := New(res, counting, &asset.Loader{Root: root}, nil)
	return &env{root: root, res: res, idx: counting, tr: tr}
}

// addAsset registers a managed file and writes its object graph to disk.
func (e *env) addAsset(t *testing.T, relPath string, el *asset.Element) *domain.ManagedFile {
	t.Helper()
	if el != nil {
		if err := asset.ToFile(filepath.Join(e.root, filepath.FromSlash(relPath)), el); err != nil {
			t.Fatalf("failed to write asset %s: %v", relPath, err)
		}
	}
	if _, err := e.res.AddEntry(relPath, domain.TUIDNull, false); err != nil {
		t.Fatalf("failed to add %s: %v", relPath, err)
	}
	file, err := e.res.GetFileByPath(relPath, false)
	if err != nil || file == nil {
		t.Fatalf("failed to look up %s: %v", relPath, err)
	}
	return file
}

func (e *env) deps(t *testing.T, id domain.TUID) map[domain.TUID]bool {
	t.Helper()
	ids, err := e.idx.SelectDependencies(id)
	if err != nil {
		t.Fatalf("failed to select dependencies: %v", err)
	}
	set := make(map[domain.TUID]bool, len(ids))
	for _, d := range ids {
		set[d] = true
	}
	return set
}

func TestCycleSafety(t *testing.T) {
	e := newEnv(t)

	// A and B reference each other. Register first so the IDs exist to
	// embed in the archives.
	a := e.addAsset(t, "props/a.entity.json", nil)
	b := e.addAsset(t, "props/b.entity.json", nil)

	e.addAsset(t, "props/a.entity.json",
		asset.NewElement("entity").AddFileRef("partner", b.ID))
	e.addAsset(t, "props/b.entity.json",
		asset.NewElement("entity").AddFileRef("partner", a.ID))

	tracked, err := e.tr.TrackFile(a)
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if !tracked {
		t.Fatal("expected a crawl")
	}

	if deps := e.deps(t, a.ID); !deps[b.ID] || len(deps) != 1 {
		t.Errorf("a deps = %v, want {b}", deps)
	}
	if deps := e.deps(t, b.ID); !deps[a.ID] || len(deps) != 1 {
		t.Errorf("b deps = %v, want {a}", deps)
	}
}

func TestIncrementalSkip(t *testing.T) {
	e := newEnv(t)

	tex := e.addAsset(t, "textures/wood.tga", asset.NewElement("texture"))
	f := e.addAsset(t, "props/crate.entity.json",
		asset.NewElement("entity").AddFileRef("diffuse", tex.ID))

	tracked, err := e.tr.TrackFile(f)
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if !tracked {
		t.Fatal("expected first call to crawl")
	}
	writes := e.idx.assetWrites

	tracked, err = e.tr.TrackFile(f)
	if err != nil {
		t.Fatalf("second track failed: %v", err)
	}
	if tracked {
		t.Error("unchanged file should be skipped")
	}
	if e.idx.assetWrites != writes {
		t.Errorf("skip performed %d writes", e.idx.assetWrites-writes)
	}
}

func TestMissingFileKeepsEdges(t *testing.T) {
	e := newEnv(t)

	tex := e.addAsset(t, "textures/wood.tga", asset.NewElement("texture"))
	f := e.addAsset(t, "props/crate.entity.json",
		asset.NewElement("entity").AddFileRef("diffuse", tex.ID))

	if _, err := e.tr.TrackFile(f); err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if deps := e.deps(t, f.ID); !deps[tex.ID] {
		t.Fatalf("deps = %v, want texture", deps)
	}
	writes := e.idx.assetWrites

	// The file disappears from disk between passes. It must be skipped,
	// not crawled into an empty edge set.
	if err := os.Remove(filepath.Join(e.root, "props", "crate.entity.json")); err != nil {
		t.Fatal(err)
	}
	tracked, err := e.tr.TrackFile(f)
	if err != nil {
		t.Fatalf("second track failed: %v", err)
	}
	if tracked {
		t.Error("missing file should be skipped")
	}
	if e.idx.assetWrites != writes {
		t.Errorf("skip performed %d writes", e.idx.assetWrites-writes)
	}
	if deps := e.deps(t, f.ID); !deps[tex.ID] {
		t.Errorf("deps after skip = %v, want texture preserved", deps)
	}
}

func TestAtomicEdgeReplacement(t *testing.T) {
	e := newEnv(t)

	b := e.addAsset(t, "textures/b.tga", asset.NewElement("texture"))
	c := e.addAsset(t, "textures/c.tga", asset.NewElement("texture"))
	a := e.addAsset(t, "props/a.entity.json",
		asset.NewElement("entity").AddFileRefs("textures", b.ID, c.ID))

	if _, err := e.tr.TrackFile(a); err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if deps := e.deps(t, a.ID); !deps[b.ID] || !deps[c.ID] {
		t.Fatalf("first crawl deps = %v, want {b, c}", deps)
	}

	// Rewrite A without B and bump its mtime past the indexed stamp.
	abs := filepath.Join(e.root, "props", "a.entity.json")
	if err := asset.ToFile(abs, asset.NewElement("entity").AddFileRefs("textures", c.ID)); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(abs, future, future); err != nil {
		t.Fatal(err)
	}

	if _, err := e.tr.TrackFile(a); err != nil {
		t.Fatalf("second track failed: %v", err)
	}
	deps := e.deps(t, a.ID)
	if len(deps) != 1 || !deps[c.ID] {
		t.Errorf("second crawl deps = %v, want exactly {c}", deps)
	}
}

func TestWorldZoneEntityChain(t *testing.T) {
	e := newEnv(t)

	entity := e.addAsset(t, "props/tree.entity.json", asset.NewElement("entity"))
	zone := e.addAsset(t, "levels/forest.zone.json",
		asset.NewElement("zone").AddFileRefs("entities", entity.ID))
	world := e.addAsset(t, "levels/forest.world.json",
		asset.NewElement("world").AddValues("zones", "levels/forest.zone.json"))

	if _, err := e.tr.TrackFile(world); err != nil {
		t.Fatalf("track failed: %v", err)
	}

	if deps := e.deps(t, world.ID); !deps[zone.ID] {
		t.Errorf("world deps = %v, want zone", deps)
	}
	if deps := e.deps(t, zone.ID); !deps[entity.ID] {
		t.Errorf("zone deps = %v, want entity", deps)
	}
}

func TestArtManifestShaders(t *testing.T) {
	e := newEnv(t)

	shader := e.addAsset(t, "shaders/bark.shader.json", asset.NewElement("shader"))
	if err := asset.ToFile(filepath.Join(e.root, "art", "tree.manifest.json"),
		asset.NewElement("manifest").AddFileRefs("shaders", shader.ID)); err != nil {
		t.Fatal(err)
	}

	crate := e.addAsset(t, "props/tree.entity.json",
		asset.NewElement("entity").AddChild("components",
			asset.NewElement("art_file").AddValue("path", "art/tree.mb")))

	if _, err := e.tr.TrackFile(crate); err != nil {
		t.Fatalf("track failed: %v", err)
	}

	if deps := e.deps(t, crate.ID); !deps[shader.ID] {
		t.Errorf("deps = %v, want shader via manifest", deps)
	}

	stored, err := e.idx.SelectAssetFile(crate.ID)
	if err != nil || stored == nil {
		t.Fatalf("failed to load asset row: %v", err)
	}
	if stored.Attributes["art_file"] != "art/tree.mb" {
		t.Errorf("attributes = %v, want art_file capture", stored.Attributes)
	}
}

func TestDiscardedFieldsAreSkipped(t *testing.T) {
	e := newEnv(t)

	tex := e.addAsset(t, "textures/a.tga", asset.NewElement("texture"))
	f := e.addAsset(t, "props/a.entity.json",
		asset.NewElement("entity").
			AddDiscard("editor_note", "scratch").
			AddFileRef("diffuse", tex.ID))

	if _, err := e.tr.TrackFile(f); err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if deps := e.deps(t, f.ID); len(deps) != 1 || !deps[tex.ID] {
		t.Errorf("deps = %v, want only the texture", deps)
	}
}

func TestStartStopThread(t *testing.T) {
	e := newEnv(t)
	e.tr.SetSleepInterval(50 * time.Millisecond)

	if err := e.tr.StartThread(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !e.tr.IsTracking() {
		t.Error("tracker should report running")
	}
	if err := e.tr.StartThread(); err == nil {
		t.Error("double start should fail")
	}

	if err := e.tr.StopThread(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if e.tr.IsTracking() {
		t.Error("tracker should have stopped")
	}

	// Stopping an already stopped tracker is a no-op.
	if err := e.tr.StopThread(); err != nil {
		t.Errorf("repeat stop failed: %v", err)
	}
}

func TestConcurrentReadsWhileTracking(t *testing.T) {
	e := newEnv(t)
	e.tr.SetSleepInterval(10 * time.Millisecond)

	tex := e.addAsset(t, "textures/wood.tga", asset.NewElement("texture"))
	f := e.addAsset(t, "props/crate.entity.json",
		asset.NewElement("entity").AddFileRef("diffuse", tex.ID))
	abs := filepath.Join(e.root, "props", "crate.entity.json")

	if err := e.tr.StartThread(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.tr.StopThread()

	// Readers share the store with the tracker thread, as the UI does.
	// Bumping the mtime keeps the tracker re-crawling inside transactions
	// while the reads run.
	for i := 0; i < 50; i++ {
		future := time.Now().Add(time.Duration(i+1) * time.Second)
		if err := os.Chtimes(abs, future, future); err != nil {
			t.Fatal(err)
		}
		if _, err := e.idx.SelectDependencies(f.ID); err != nil {
			t.Fatalf("read during tracking failed: %v", err)
		}
		if _, err := e.res.SearchFiles("crate"); err != nil {
			t.Fatalf("search during tracking failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMarkDirtyTracksBetweenPasses(t *testing.T) {
	e := newEnv(t)
	e.tr.SetSleepInterval(time.Minute)

	tex := e.addAsset(t, "textures/a.tga", asset.NewElement("texture"))

	if err := e.tr.StartThread(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.tr.StopThread()

	// Registered after the pass started; the watcher path picks it up
	// during the sleep.
	f := e.addAsset(t, "props/late.entity.json",
		asset.NewElement("entity").AddFileRef("diffuse", tex.ID))
	e.tr.MarkDirty("props/late.entity.json")

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if deps := e.deps(t, f.ID); deps[tex.ID] {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("dirty file was never tracked")
}

package tracker

import (
	"os"
	"path/filepath"

	"assetdb/internal/asset"
	"assetdb/internal/domain"
)

// Element types excluded from crawling entirely.
var elementFilterTypes = map[string]bool{
	"editor_metadata": true,
	"thumbnail":       true,
}

// Custom per-element-type handlers. A handler returning false falls
// through to the default structural crawl of that element.
var elementHandlers map[string]func(c *crawl, e *asset.Element) bool

// Custom per-file-type handlers for container formats with their own
// internal reference graphs. Everything else goes through the default
// load-and-host path.
var fileHandlers map[domain.EngineType]func(c *crawl, a *domain.AssetFile)

// The tables are populated here rather than in the var initializers: the
// handlers and the dispatch sites reference each other, which the compiler
// rejects as an initialization cycle.
func init() {
	elementHandlers = map[string]func(c *crawl, e *asset.Element) bool{
		"art_file": handleArtFileElement,
	}
	fileHandlers = map[domain.EngineType]func(c *crawl, a *domain.AssetFile){
		domain.EngineTypeWorld: handleWorldFile,
		domain.EngineTypeZone:  handleZoneFile,
	}
}

// crawl is the state of one depth-first traversal: every file discovered so
// far, the stack of files currently being visited (the cycle guard and the
// attribution point for new edges), and the element currently hosting the
// visitor (the self-reference guard).
type crawl struct {
	t       *Tracker
	files   map[domain.TUID]*domain.AssetFile
	stack   []domain.TUID
	current *asset.Element
}

var _ asset.Visitor = (*crawl)(nil)

func newCrawl(t *Tracker) *crawl {
	return &crawl{
		t:     t,
		files: make(map[domain.TUID]*domain.AssetFile),
	}
}

// trackAssetFile is the crawl entry point for one root file. Load failures
// are soft: the file still gets an empty record so its indexed time moves
// forward and the next pass skips it.
func (c *crawl) trackAssetFile(file *domain.ManagedFile) {
	a := domain.NewAssetFile(file)
	if info, err := os.Stat(filepath.Join(c.t.index.Root(), filepath.FromSlash(file.Path))); err == nil {
		a.Size = info.Size()
	}

	c.files[file.ID] = a
	c.pushID(file.ID)
	defer c.popID()

	if handler, ok := fileHandlers[a.EngineType]; ok {
		handler(c, a)
		return
	}
	c.hostAssetFile(a)
}

// hostAssetFile loads a file's object graph and drives the visitor over it.
func (c *crawl) hostAssetFile(a *domain.AssetFile) {
	e, err := c.t.loader.LoadAsset(a.File.Path)
	if err != nil {
		c.t.logger.Warn("failed to load asset, treating as leaf",
			"path", a.File.Path, "error", err)
		return
	}

	saved := c.current
	c.current = e
	e.Host(c)
	c.current = saved
}

// VisitElement dispatches one object: filtered types are skipped, the
// element currently being hosted is never re-entered, custom handlers get
// first refusal, and the default is a structural walk of the fields.
func (c *crawl) VisitElement(e *asset.Element) bool {
	if elementFilterTypes[e.Type] {
		return false
	}
	if e == c.current {
		return false
	}

	if handler, ok := elementHandlers[e.Type]; ok {
		if handler(c, e) {
			return true
		}
	}

	saved := c.current
	c.current = e
	e.Host(c)
	c.current = saved
	return true
}

// VisitField routes one field: single and collection file references go
// through ID resolution, nested sub-objects recurse structurally, scalar
// values are opaque.
func (c *crawl) VisitField(e *asset.Element, f *asset.Field) bool {
	if f.Flags&asset.FlagDiscard != 0 {
		return false
	}

	switch {
	case f.Flags&asset.FlagFileRef != 0:
		c.handleFileID(f.ID)
	case f.Flags&asset.FlagFileRefCollection != 0:
		for _, id := range f.IDs {
			c.handleFileID(id)
		}
	case len(f.Elements) > 0:
		for _, child := range f.Elements {
			c.VisitElement(child)
		}
	}
	return true
}

// handleFileID resolves one referenced ID and records the edge from the
// file currently being visited. The edge is always recorded; recursion
// happens only for files newly discovered in this crawl, and never for a
// file already on the stack (a cycle).
func (c *crawl) handleFileID(id domain.TUID) {
	if id == domain.TUIDNull || id == c.currentID() {
		return
	}

	file, err := c.t.resolver.GetFileByID(id, false)
	if err != nil || file == nil {
		c.t.logger.Warn("unresolvable file reference",
			"id", id.Hex(), "from", c.currentAssetFile().File.Path)
		return
	}

	c.addFileUsage(id)

	if c.onStack(id) {
		return
	}
	if _, seen := c.files[id]; seen {
		return
	}

	a := domain.NewAssetFile(file)
	if info, err := os.Stat(filepath.Join(c.t.index.Root(), filepath.FromSlash(file.Path))); err == nil {
		a.Size = info.Size()
	}

	c.preHandleFile(a)
	if handler, ok := fileHandlers[a.EngineType]; ok {
		handler(c, a)
	} else {
		c.hostAssetFile(a)
	}
	c.postHandleFile()
}

// preHandleFile registers a newly discovered file and makes it the current
// attribution target.
func (c *crawl) preHandleFile(a *domain.AssetFile) {
	c.files[a.File.ID] = a
	c.pushID(a.File.ID)
}

func (c *crawl) postHandleFile() {
	c.popID()
}

// addFileUsage records one dependency edge from the current file.
func (c *crawl) addFileUsage(id domain.TUID) {
	c.currentAssetFile().AddDependency(id)
}

// addAttribute records a name→value attribute on the current file.
func (c *crawl) addAttribute(name, value string) {
	c.currentAssetFile().AddAttribute(name, value)
}

func (c *crawl) currentID() domain.TUID {
	return c.stack[len(c.stack)-1]
}

func (c *crawl) currentAssetFile() *domain.AssetFile {
	return c.files[c.currentID()]
}

func (c *crawl) onStack(id domain.TUID) bool {
	for _, v := range c.stack {
		if v == id {
			return true
		}
	}
	return false
}

func (c *crawl) pushID(id domain.TUID) {
	c.stack = append(c.stack, id)
}

func (c *crawl) popID() {
	if len(c.stack) == 0 {
		panic("tracker: pop of empty visited stack")
	}
	c.stack = c.stack[:len(c.stack)-1]
}

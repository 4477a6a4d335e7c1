package domain

import (
	"sort"
	"strings"
)

// EngineType classifies a managed file by the engine system that consumes it.
type EngineType string

const (
	EngineTypeEntity    EngineType = "entity"
	EngineTypeShader    EngineType = "shader"
	EngineTypeTexture   EngineType = "texture"
	EngineTypeMesh      EngineType = "mesh"
	EngineTypeWorld     EngineType = "world"
	EngineTypeZone      EngineType = "zone"
	EngineTypeAnimation EngineType = "animation"
	EngineTypeUnknown   EngineType = "unknown"
)

var engineTypeByExt = map[string]EngineType{
	".entity.json": EngineTypeEntity,
	".shader.json": EngineTypeShader,
	".world.json":  EngineTypeWorld,
	".zone.json":   EngineTypeZone,
	".anim.json":   EngineTypeAnimation,
	".tga":         EngineTypeTexture,
	".png":         EngineTypeTexture,
	".dds":         EngineTypeTexture,
	".mesh":        EngineTypeMesh,
	".mb":          EngineTypeMesh,
}

// ClassifyEngineType maps a path to its EngineType by extension. Compound
// extensions (".entity.json") win over plain ones.
func ClassifyEngineType(path string) EngineType {
	lower := strings.ToLower(path)
	for ext, t := range engineTypeByExt {
		if strings.HasSuffix(lower, ext) {
			return t
		}
	}
	return EngineTypeUnknown
}

// AssetFile is the per-crawl working record for one managed file: the
// dependencies and attributes discovered while walking its object graph.
// It is owned by the tracker for the duration of one crawl pass, then
// persisted wholesale.
type AssetFile struct {
	File         *ManagedFile
	EngineType   EngineType
	Size         int64
	Attributes   map[string]string
	Dependencies map[TUID]struct{}
	LastIndexed  uint64
	RowID        int64 // cache store row, 0 until persisted
}

// NewAssetFile starts an empty crawl record for a managed file.
func NewAssetFile(file *ManagedFile) *AssetFile {
	return &AssetFile{
		File:         file,
		EngineType:   ClassifyEngineType(file.Path),
		Attributes:   make(map[string]string),
		Dependencies: make(map[TUID]struct{}),
	}
}

// AddDependency records one outgoing edge. Duplicates collapse.
func (a *AssetFile) AddDependency(id TUID) {
	if id == TUIDNull || id == a.File.ID {
		return
	}
	a.Dependencies[id] = struct{}{}
}

// AddAttribute records a name→value attribute discovered during the crawl.
func (a *AssetFile) AddAttribute(name, value string) {
	a.Attributes[name] = value
}

// DependencyList returns the edge set in a stable order.
func (a *AssetFile) DependencyList() []TUID {
	ids := make([]TUID, 0, len(a.Dependencies))
	for id := range a.Dependencies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

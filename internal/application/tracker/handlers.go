package tracker

import (
	"path"
	"strings"

	"assetdb/internal/asset"
	"assetdb/internal/domain"
)

// handleWorldFile crawls a world container. Worlds name their zones by
// path, not by typed reference, so the default field walk cannot see them;
// each named zone is resolved and fed through the normal discovery path so
// cycle detection and edge recording stay centralized.
func handleWorldFile(c *crawl, a *domain.AssetFile) {
	e, err := c.t.loader.LoadAsset(a.File.Path)
	if err != nil {
		c.t.logger.Warn("failed to load world file", "path", a.File.Path, "error", err)
		return
	}

	zones := e.Field("zones")
	if zones == nil {
		c.t.logger.Warn("world file has no zone list", "path", a.File.Path)
		return
	}

	for _, zonePath := range zones.Values {
		file, err := c.t.resolver.GetFileByPath(zonePath, false)
		if err != nil || file == nil {
			c.t.logger.Warn("world references unmanaged zone",
				"world", a.File.Path, "zone", zonePath)
			continue
		}
		c.handleFileID(file.ID)
	}
}

// handleZoneFile crawls a zone container: its entity instances are the
// dependencies. A zone without an entity list falls back to the default
// structural walk.
func handleZoneFile(c *crawl, a *domain.AssetFile) {
	e, err := c.t.loader.LoadAsset(a.File.Path)
	if err != nil {
		c.t.logger.Warn("failed to load zone file", "path", a.File.Path, "error", err)
		return
	}

	entities := e.Field("entities")
	if entities == nil {
		saved := c.current
		c.current = e
		e.Host(c)
		c.current = saved
		return
	}

	for _, id := range entities.IDs {
		c.handleFileID(id)
	}
	for _, instance := range entities.Elements {
		c.VisitElement(instance)
	}
}

// handleArtFileElement resolves an art-file element through its side-car
// manifest: the exporter writes a manifest next to the art source listing
// the shader IDs the art actually uses. A missing or unreadable manifest
// means no extra dependencies from this element, and the element falls
// back to the default walk.
func handleArtFileElement(c *crawl, e *asset.Element) bool {
	pathField := e.Field("path")
	if pathField == nil || pathField.Value == "" {
		return false
	}
	artPath := pathField.Value

	manifest, err := c.t.loader.LoadAsset(manifestPath(artPath))
	if err != nil {
		c.t.logger.Warn("failed to load art manifest",
			"art", artPath, "error", err)
		return false
	}

	shaders := manifest.Field("shaders")
	if shaders == nil {
		return false
	}
	for _, id := range shaders.IDs {
		c.handleFileID(id)
	}

	c.addAttribute(e.Type, artPath)
	return true
}

// manifestPath maps an art source path to its exported side-car manifest,
// e.g. "props/crate.mb" -> "props/crate.manifest.json".
func manifestPath(artPath string) string {
	return strings.TrimSuffix(artPath, path.Ext(artPath)) + ".manifest.json"
}

package ports

import "assetdb/internal/asset"

// AssetLoader is the asset-loading side of the reflection collaborator:
// given a managed-root-relative path, produce the typed object graph the
// tracker will host a visitor over.
type AssetLoader interface {
	LoadAsset(relPath string) (*asset.Element, error)
}

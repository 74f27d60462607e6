package ports

import "github.com/aalvaropc/readprep/internal/domain"

// ManifestLoader loads sample manifests from a source (e.g., filesystem).
type ManifestLoader interface {
	LoadManifest(path string) (domain.Manifest, error)
	ListManifests(root string) ([]domain.ManifestRef, error)
}

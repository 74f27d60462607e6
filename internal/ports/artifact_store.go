package ports

import "github.com/aalvaropc/readprep/internal/domain"

// ArtifactStore persists run reports for reproducibility.
type ArtifactStore interface {
	SaveRun(run domain.RunArtifact) (id string, err error)
	ListRuns() ([]domain.RunRef, error)
	// LoadRunJSON returns the stored report as raw JSON for querying.
	LoadRunJSON(id string) ([]byte, error)
}

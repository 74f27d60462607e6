package ports

import (
	"context"

	"github.com/aalvaropc/readprep/internal/domain"
)

// Stager owns scratch workspaces. Every workspace returned by Stage must be
// handed back to Release once the sample is finished, whatever the outcome.
type Stager interface {
	Stage(ctx context.Context, sample domain.Sample, decompress bool) (domain.Workspace, error)
	Release(ws domain.Workspace) error
}

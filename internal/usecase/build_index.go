package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

// BuildIndex builds an aligner index from a reference sequence. It is a
// one-sample batch whose sample is the reference and whose id is the index
// basename.
type BuildIndex struct {
	process *ProcessSamples
}

func NewBuildIndex(process *ProcessSamples) *BuildIndex {
	return &BuildIndex{process: process}
}

func (uc *BuildIndex) Execute(ctx context.Context, reference, name string, sink ports.OutputSink) (domain.RunArtifact, string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return domain.RunArtifact{}, "", &domain.OpError{
			Op:   "index.build",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("invalid index name %q: %w", name, domain.ErrInvalidConfig),
		}
	}

	m := domain.Manifest{
		Name:    name,
		Path:    reference,
		Layout:  domain.LayoutSingle,
		Samples: []domain.Sample{{ID: name, Forward: reference}},
	}
	return uc.process.Execute(ctx, m, sink)
}

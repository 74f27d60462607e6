package tui

import (
	"context"
	"log/slog"

	"github.com/aalvaropc/readprep/internal/domain"
)

// BatchFunc runs a batch, reporting progress to observe. It must return once
// ctx is canceled.
type BatchFunc func(ctx context.Context, observe func(domain.SampleEvent)) (domain.RunArtifact, string, error)

type Deps struct {
	Title   string
	Samples []string // Sample ids in manifest order.

	Logger *slog.Logger
	Debug  bool
}

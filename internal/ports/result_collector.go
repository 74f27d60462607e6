package ports

import (
	"context"

	"github.com/aalvaropc/readprep/internal/domain"
)

// ResultCollector moves a plan's raw outputs into the sink.
type ResultCollector interface {
	Collect(ctx context.Context, sample domain.Sample, plan domain.ToolPlan, sink OutputSink) ([]domain.CollectedOutput, error)
}

package ports

import "github.com/aalvaropc/readprep/internal/domain"

// SampleTool turns a staged sample into the commands to run and the outputs
// to collect.
type SampleTool interface {
	Pipeline() domain.Pipeline
	// Decompress reports whether the tool needs uncompressed working copies.
	Decompress() bool
	Plan(ws domain.Workspace, sample domain.Sample) (domain.ToolPlan, error)
}

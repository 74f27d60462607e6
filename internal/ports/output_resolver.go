package ports

import "github.com/aalvaropc/readprep/internal/domain"

// OutputResolver is implemented by tools whose output file names are only
// known after they ran. ResolveOutputs returns the plan with Outputs filled
// in from what is actually in the workspace.
type OutputResolver interface {
	ResolveOutputs(ws domain.Workspace, sample domain.Sample, plan domain.ToolPlan) (domain.ToolPlan, error)
}

package ports

import (
	"context"

	"github.com/aalvaropc/readprep/internal/domain"
)

// CommandRunner executes one external command synchronously.
// Non-zero exit and launch failures are reported as *domain.ToolInvocationError.
type CommandRunner interface {
	Run(ctx context.Context, cmd domain.Command) error
}

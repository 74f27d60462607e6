package domain

import (
	"strings"
)

// WorkspacePlaceholder stands in for the scratch directory in command
// templates.
const WorkspacePlaceholder = "{{workspace}}"

// Command is an executable plus its ordered arguments. Commands are built
// fresh for every invocation.
type Command struct {
	Name string
	Args []string
}

// Argv returns the full argument vector, executable first.
func (c Command) Argv() []string {
	out := make([]string, 0, len(c.Args)+1)
	out = append(out, c.Name)
	return append(out, c.Args...)
}

// String renders the command line for logs and errors.
func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Template renders the command line with every occurrence of the scratch
// directory replaced by WorkspacePlaceholder, so the line stays meaningful
// after the workspace has been removed.
func (c Command) Template(workspaceDir string) string {
	line := c.String()
	if workspaceDir == "" {
		return line
	}
	return strings.ReplaceAll(line, workspaceDir, WorkspacePlaceholder)
}

// Workspace is the per-sample scratch directory and the working copies of the
// sample's reads inside it.
type Workspace struct {
	Dir     string
	Forward string
	Reverse string // Empty for single-end samples.

	// StagedBytes is the size of the decompressed working files.
	StagedBytes int64
}

// OutputRole tells which input read file an output corresponds to.
type OutputRole string

const (
	RoleForward OutputRole = "forward"
	RoleReverse OutputRole = "reverse"
	RoleIndex   OutputRole = "index"
)

// OutputMapping ties a raw tool output file to the name it must have in the
// output directory.
type OutputMapping struct {
	Source string
	Target string
	Role   OutputRole
}

// ToolPlan is everything needed to process one sample: the commands to run
// in order and the outputs they are expected to leave in the workspace.
type ToolPlan struct {
	Commands []Command
	Outputs  []OutputMapping
}

// CollectedOutput describes one file written to the output directory.
type CollectedOutput struct {
	Name     string
	Role     OutputRole
	Reads    int64
	Empty    bool // Written as an empty result because the tool emitted nothing.
	HasReads bool // Reads was counted.
}

package ports

// WorkspaceLocator finds a readprep project root starting from an arbitrary directory.
type WorkspaceLocator interface {
	FindRoot(startDir string) (string, error)
}

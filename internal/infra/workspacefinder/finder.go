package workspacefinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

// ConfigFile is the marker file of a readprep project root.
const ConfigFile = "readprep.yaml"

// EnvVar pins the project root, e.g. for jobs submitted from a scratch
// directory on a cluster.
const EnvVar = "READPREP_WORKSPACE"

var markers = []string{ConfigFile, "readprep.yml"}

// Finder locates a readprep project root: $READPREP_WORKSPACE when set,
// otherwise the nearest directory at or above the start that holds a
// readprep.yaml (or readprep.yml).
type Finder struct {
	Getenv func(string) string
}

func NewFinder() *Finder {
	return &Finder{Getenv: os.Getenv}
}

var _ ports.WorkspaceLocator = (*Finder)(nil)

func (f *Finder) FindRoot(startDir string) (string, error) {
	if f.Getenv != nil {
		if pinned := strings.TrimSpace(f.Getenv(EnvVar)); pinned != "" {
			abs, err := filepath.Abs(pinned)
			if err == nil && ConfigPath(abs) != "" {
				return abs, nil
			}
			return "", &domain.OpError{
				Op:   "workspacefinder.findroot",
				Kind: domain.KindInvalidConfig,
				Path: pinned,
				Err:  fmt.Errorf("%s points at a directory without %s: %w", EnvVar, ConfigFile, domain.ErrInvalidConfig),
			}
		}
	}

	if startDir == "" {
		return "", &domain.OpError{
			Op:   "workspacefinder.findroot",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("startDir is empty"),
		}
	}
	cur, err := filepath.Abs(startDir)
	if err != nil {
		return "", &domain.OpError{Op: "workspacefinder.findroot", Kind: domain.KindEnvironment, Err: err}
	}

	// Manifests and read files work as a starting point too.
	if fi, err := os.Stat(cur); err == nil && !fi.IsDir() {
		cur = filepath.Dir(cur)
	}

	for {
		if ConfigPath(cur) != "" {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", &domain.OpError{
				Op:   "workspacefinder.findroot",
				Kind: domain.KindNotFound,
				Path: startDir,
				Err:  domain.ErrNotFound,
			}
		}
		cur = parent
	}
}

// ConfigPath returns the project config file inside root, or "" when there
// is none. readprep.yaml wins over readprep.yml.
func ConfigPath(root string) string {
	for _, m := range markers {
		p := filepath.Join(root, m)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

// ValidationReport summarizes a dry check of a batch.
type ValidationReport struct {
	Manifest     domain.Manifest
	Profile      domain.Profile
	Tools        map[string]string // name -> resolved path
	MissingTools []string
}

type ValidateManifest struct {
	manifests ports.ManifestLoader
	params    ports.ParamsLoader
	lookPath  func(string) (string, error)
}

type ValidateOption func(*ValidateManifest)

// WithLookPath replaces exec.LookPath, e.g. in tests.
func WithLookPath(fn func(string) (string, error)) ValidateOption {
	return func(uc *ValidateManifest) {
		if fn != nil {
			uc.lookPath = fn
		}
	}
}

func NewValidateManifest(ml ports.ManifestLoader, pl ports.ParamsLoader, opts ...ValidateOption) *ValidateManifest {
	uc := &ValidateManifest{
		manifests: ml,
		params:    pl,
		lookPath:  exec.LookPath,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute loads the manifest and the profile and checks that every tool
// executable can be found, without running anything.
func (uc *ValidateManifest) Execute(ctx context.Context, manifestPath, profile string, tools []string) (ValidationReport, error) {
	var rep ValidationReport

	m, err := uc.manifests.LoadManifest(manifestPath)
	if err != nil {
		return rep, err
	}
	rep.Manifest = m

	if err := ctx.Err(); err != nil {
		return rep, err
	}

	p, err := uc.params.LoadProfile(profile)
	if err != nil {
		return rep, err
	}
	rep.Profile = p

	rep.Tools = map[string]string{}
	for _, t := range tools {
		if strings.TrimSpace(t) == "" {
			continue
		}
		path, err := uc.lookPath(t)
		if err != nil {
			rep.MissingTools = append(rep.MissingTools, t)
			continue
		}
		rep.Tools[t] = path
	}

	if len(rep.MissingTools) > 0 {
		return rep, &domain.OpError{
			Op:   "validate.tools",
			Kind: domain.KindEnvironment,
			Err:  fmt.Errorf("%w: not found: %s", errToolsMissing, strings.Join(rep.MissingTools, ", ")),
		}
	}
	return rep, nil
}

var errToolsMissing = errors.New("tool executables missing")

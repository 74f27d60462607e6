package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/collector"
	"github.com/aalvaropc/readprep/internal/infra/fastqstats"
	"github.com/aalvaropc/readprep/internal/infra/logger"
	"github.com/aalvaropc/readprep/internal/infra/procrunner"
	"github.com/aalvaropc/readprep/internal/infra/runstore"
	"github.com/aalvaropc/readprep/internal/infra/staging"
	"github.com/aalvaropc/readprep/internal/infra/workspacefinder"
	"github.com/aalvaropc/readprep/internal/infra/yamlmanifest"
	"github.com/aalvaropc/readprep/internal/infra/yamlparams"
	"github.com/aalvaropc/readprep/internal/ports"
)

type workspaceCtx struct {
	root string
	cfg  domain.Config
	log  *slog.Logger

	manifests ports.ManifestLoader

	params        ports.ParamsLoader
	paramsCatalog ports.ParamsCatalog

	store ports.ArtifactStore
}

func loadWorkspace(workspaceFlag string) (*workspaceCtx, error) {
	root, err := resolveWorkspaceRoot(workspaceFlag)
	if err != nil {
		return nil, err
	}

	cfg, err := workspacefinder.LoadConfig(root)
	if err != nil {
		return nil, err
	}

	manifestLoader := yamlmanifest.NewLoader(
		yamlmanifest.WithManifestsDir(cfg.Paths.ManifestsDir),
	)

	paramsLoader := yamlparams.NewLoader(
		root,
		yamlparams.WithParamsDir(cfg.Paths.ParamsDir),
	)

	store := runstore.NewJSONStore(root, cfg, runstore.WithIndex(true))

	return &workspaceCtx{
		root:          root,
		cfg:           cfg,
		log:           logger.L(),
		manifests:     manifestLoader,
		params:        paramsLoader,
		paramsCatalog: paramsLoader,
		store:         store,
	}, nil
}

// stager builds the scratch-workspace manager from the execution settings.
func (ws *workspaceCtx) stager() *staging.Stager {
	tmp := ws.cfg.Execution.TempDir
	if tmp != "" && !filepath.IsAbs(tmp) {
		tmp = filepath.Join(ws.root, tmp)
	}
	return staging.New(
		staging.WithTempDir(tmp),
		staging.WithMinFreeSpace(ws.cfg.Execution.MinFreeSpace),
		staging.WithLogger(ws.log),
	)
}

// runner builds the process runner. Tool output goes to toolOut; under the
// progress view that is a per-run file so tools cannot draw over it.
func (ws *workspaceCtx) runner(timeout time.Duration, toolOut io.Writer) *procrunner.Runner {
	return procrunner.New(
		procrunner.WithTimeout(timeout),
		procrunner.WithOutput(toolOut, toolOut),
		procrunner.WithLogger(ws.log),
	)
}

func (ws *workspaceCtx) collector(opts ...collector.Option) *collector.Collector {
	base := []collector.Option{
		collector.WithMissingOutput(ws.cfg.Execution.MissingOutput),
		collector.WithLogger(ws.log),
	}
	if ws.cfg.Execution.Stats {
		base = append(base, collector.WithReadCounter(fastqstats.NewCounter()))
	}
	return collector.New(append(base, opts...)...)
}

func resolveWorkspaceRoot(workspaceFlag string) (string, error) {
	w := strings.TrimSpace(workspaceFlag)
	if w != "" {
		abs, err := filepath.Abs(w)
		if err != nil {
			return "", fmt.Errorf("invalid workspace path: %w", err)
		}
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	var locator ports.WorkspaceLocator = workspacefinder.NewFinder()
	root, err := locator.FindRoot(wd)
	if err != nil {
		return "", fmt.Errorf("workspace not found from %q (tip: run `readprep init`): %w", wd, err)
	}
	return root, nil
}

// resolveManifestPath accepts a manifest name ("demo"), a file name under
// the manifests dir ("demo.yaml"), or a path to a manifest file or a Casava
// directory.
func resolveManifestPath(ws *workspaceCtx, arg string) (string, error) {
	in := strings.TrimSpace(arg)
	if in == "" {
		return "", fmt.Errorf("manifest is required (use --manifest or -m)")
	}

	if looksLikePath(in) || isDir(in) {
		return resolveUserPath(ws, in), nil
	}

	manifestsDir := filepath.Join(ws.root, ws.cfg.Paths.ManifestsDir)

	if hasYAMLExt(in) {
		p := filepath.Join(manifestsDir, in)
		if fileExists(p) {
			return p, nil
		}
	}

	p1 := filepath.Join(manifestsDir, in+".yaml")
	if fileExists(p1) {
		return p1, nil
	}
	p2 := filepath.Join(manifestsDir, in+".yml")
	if fileExists(p2) {
		return p2, nil
	}

	// As a last resort: match by manifest "name" field.
	refs, err := ws.manifests.ListManifests(ws.root)
	if err == nil {
		for _, r := range refs {
			if strings.EqualFold(r.Name, in) {
				return r.Path, nil
			}
		}
	}

	return "", fmt.Errorf("manifest %q not found in %q", in, manifestsDir)
}

func resolveProfileArg(ws *workspaceCtx, arg string) string {
	in := strings.TrimSpace(arg)
	if in == "" {
		return ws.cfg.Defaults.Params
	}
	if looksLikePath(in) {
		return resolveUserPath(ws, in)
	}
	if hasYAMLExt(in) {
		return filepath.Join(ws.root, ws.cfg.Paths.ParamsDir, in)
	}
	return in
}

// resolveUserPath resolves a relative path against the working directory
// when it exists there and against the workspace root otherwise.
func resolveUserPath(ws *workspaceCtx, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if abs, err := filepath.Abs(p); err == nil && fileExists(abs) {
		return abs
	}
	return filepath.Clean(filepath.Join(ws.root, p))
}

func looksLikePath(s string) bool {
	return strings.Contains(s, "/") || strings.Contains(s, string(filepath.Separator))
}

func hasYAMLExt(s string) bool {
	ext := strings.ToLower(filepath.Ext(s))
	return ext == ".yaml" || ext == ".yml"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

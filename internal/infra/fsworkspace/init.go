// Package fsworkspace scaffolds a readprep project on disk.
package fsworkspace

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/logger"
	"github.com/aalvaropc/readprep/internal/infra/workspacefinder"
	"github.com/aalvaropc/readprep/internal/ports"
)

// gitignoreEntries keep run artifacts, scratch logs, raw reads and index
// files out of version control.
var gitignoreEntries = []string{
	"runs/",
	".readprep/",
	"reads/*.fastq.gz",
	"*.bt2",
	"*.bt2l",
}

const gitignoreHeader = "# readprep"

type Initializer struct {
	log *slog.Logger
}

type Option func(*Initializer)

func WithLogger(l *slog.Logger) Option {
	return func(i *Initializer) {
		if l != nil {
			i.log = l
		}
	}
}

func NewInitializer(opts ...Option) *Initializer {
	i := &Initializer{log: slog.New(slog.NewJSONHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

var _ ports.WorkspaceInitializer = (*Initializer)(nil)

// Init creates the project layout under spec.Root. Existing files are kept
// unless force is set. Scaffolding inside another readprep project is
// refused without force, since commands would then resolve the outer one
// from subdirectories.
func (i *Initializer) Init(spec domain.WorkspaceSpec, force bool) error {
	root := filepath.Clean(spec.Root)

	if !force {
		if outer, err := (&workspacefinder.Finder{}).FindRoot(filepath.Dir(root)); err == nil && outer != root {
			return &domain.OpError{
				Op:   "fsworkspace.init",
				Kind: domain.KindInvalidConfig,
				Path: root,
				Err:  fmt.Errorf("already inside the readprep project at %s (use --force to nest): %w", outer, domain.ErrInvalidConfig),
			}
		}
	}

	paths := domain.DefaultConfig().Paths
	for _, d := range []string{paths.ManifestsDir, paths.ParamsDir, paths.RunsDir, "reads", logger.Dir} {
		dir := filepath.Join(root, d)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &domain.OpError{Op: "fsworkspace.mkdir", Kind: domain.KindEnvironment, Path: dir, Err: err}
		}
	}

	if err := ensureGitignore(root); err != nil {
		return &domain.OpError{Op: "fsworkspace.gitignore", Kind: domain.KindEnvironment, Path: root, Err: err}
	}

	err := fs.WalkDir(templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := strings.CutPrefix(p, "templates/")
		return i.place(root, rel, force)
	})
	if err != nil {
		return &domain.OpError{Op: "fsworkspace.templates", Kind: domain.KindEnvironment, Path: root, Err: err}
	}

	i.log.Info("workspace.initialized", "root", root, "force", force)
	return nil
}

// place copies one embedded template to root/rel.
func (i *Initializer) place(root, rel string, force bool) error {
	dst := filepath.Join(root, filepath.FromSlash(rel))
	if _, err := os.Stat(dst); err == nil && !force {
		i.log.Debug("workspace.file_kept", "path", dst)
		return nil
	}

	b, err := fs.ReadFile(templatesFS, path.Join("templates", rel))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		return err
	}
	i.log.Debug("workspace.file_written", "path", dst)
	return nil
}

func ensureGitignore(root string) error {
	p := filepath.Join(root, ".gitignore")
	b, err := os.ReadFile(p)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	merged, changed := mergeGitignore(string(b))
	if !changed {
		return nil
	}
	return os.WriteFile(p, []byte(merged), 0o644)
}

// mergeGitignore appends the readprep block, or just its missing lines, to
// an existing .gitignore.
func mergeGitignore(existing string) (string, bool) {
	present := map[string]bool{}
	for _, line := range strings.Split(existing, "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var add []string
	if !present[gitignoreHeader] {
		add = append(add, gitignoreHeader)
	}
	for _, e := range gitignoreEntries {
		if !present[e] {
			add = append(add, e)
		}
	}
	if len(add) == 0 || (len(add) == 1 && add[0] == gitignoreHeader) {
		return existing, false
	}

	var out strings.Builder
	out.WriteString(existing)
	if existing != "" {
		if !strings.HasSuffix(existing, "\n") {
			out.WriteByte('\n')
		}
		out.WriteByte('\n')
	}
	out.WriteString(strings.Join(add, "\n"))
	out.WriteByte('\n')
	return out.String(), true
}

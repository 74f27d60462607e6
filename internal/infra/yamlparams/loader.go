// Package yamlparams loads parameter profiles from params/<name>.yaml.
// Each profile overlays the built-in defaults; absent keys keep them.
package yamlparams

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
	"gopkg.in/yaml.v3"
)

const builtinProfile = "default"

type Loader struct {
	rootDir   string
	paramsDir string
}

type Option func(*Loader)

func WithParamsDir(dir string) Option {
	return func(l *Loader) {
		if strings.TrimSpace(dir) != "" {
			l.paramsDir = dir
		}
	}
}

func NewLoader(root string, opts ...Option) *Loader {
	l := &Loader{
		rootDir:   root,
		paramsDir: "params",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var (
	_ ports.ParamsLoader  = (*Loader)(nil)
	_ ports.ParamsCatalog = (*Loader)(nil)
)

// LoadProfile accepts either a profile name (e.g., "strict") or a path to a
// YAML file. The "default" profile falls back to built-in values when no
// file exists for it.
func (l *Loader) LoadProfile(nameOrPath string) (domain.Profile, error) {
	var path, name string

	if strings.HasSuffix(nameOrPath, ".yaml") || strings.HasSuffix(nameOrPath, ".yml") || strings.Contains(nameOrPath, string(filepath.Separator)) {
		path = filepath.Clean(nameOrPath)
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	} else {
		name = nameOrPath
		if name == "" {
			name = builtinProfile
		}
		path = filepath.Join(l.rootDir, l.paramsDir, name+".yaml")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && name == builtinProfile && path == filepath.Join(l.rootDir, l.paramsDir, builtinProfile+".yaml") {
			return domain.DefaultProfile(), nil
		}
		return domain.Profile{}, &domain.OpError{
			Op:   "yamlparams.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var y yamlProfile
	if err := yaml.Unmarshal(b, &y); err != nil {
		return domain.Profile{}, &domain.OpError{
			Op:   "yamlparams.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	p := domain.DefaultProfile()
	p.Name = name
	p.Path = path
	if err := y.applyTo(&p); err != nil {
		return domain.Profile{}, &domain.OpError{
			Op:   "yamlparams.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	if err := Validate(p); err != nil {
		var oe *domain.OpError
		if errors.As(err, &oe) {
			oe.Path = path
		}
		return domain.Profile{}, err
	}
	return p, nil
}

// Validate checks every section of the profile.
func Validate(p domain.Profile) error {
	if err := p.Trim.Validate(); err != nil {
		return err
	}
	if err := p.Filter.Validate(); err != nil {
		return err
	}
	return p.Index.Validate()
}

func (l *Loader) ListProfiles(root string) ([]domain.ProfileRef, error) {
	dir := filepath.Join(root, l.paramsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamlparams.list",
			Kind: domain.KindNotFound,
			Path: dir,
			Err:  err,
		}
	}

	var refs []domain.ProfileRef
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if !strings.HasSuffix(n, ".yaml") && !strings.HasSuffix(n, ".yml") {
			continue
		}
		refs = append(refs, domain.ProfileRef{
			Name: strings.TrimSuffix(n, filepath.Ext(n)),
			Path: filepath.Join(dir, n),
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

type yamlProfile struct {
	Trim struct {
		TrimQualRight  *int        `yaml:"trim_qual_right"`
		TrimQualType   *string     `yaml:"trim_qual_type"`
		TrimQualWindow *int        `yaml:"trim_qual_window"`
		MinQualMean    *int        `yaml:"min_qual_mean"`
		MinLen         *int        `yaml:"min_len"`
		LCMethod       *string     `yaml:"lc_method"`
		LCThreshold    *int        `yaml:"lc_threshold"`
		Derep          *derepValue `yaml:"derep"`
	} `yaml:"trim"`

	Filter struct {
		Threads           *int    `yaml:"n_threads"`
		Mode              *string `yaml:"mode"`
		Sensitivity       *string `yaml:"sensitivity"`
		RefGapOpenPenalty *int    `yaml:"ref_gap_open_penalty"`
		RefGapExtPenalty  *int    `yaml:"ref_gap_ext_penalty"`
		ExcludeSeqs       *bool   `yaml:"exclude_seqs"`
	} `yaml:"filter"`

	Index struct {
		Threads *int `yaml:"n_threads"`
	} `yaml:"index"`
}

func (y yamlProfile) applyTo(p *domain.Profile) error {
	t := &p.Trim
	setInt(&t.TrimQualRight, y.Trim.TrimQualRight)
	setInt(&t.TrimQualWindow, y.Trim.TrimQualWindow)
	setInt(&t.MinQualMean, y.Trim.MinQualMean)
	setInt(&t.MinLen, y.Trim.MinLen)
	setInt(&t.LCThreshold, y.Trim.LCThreshold)
	if y.Trim.TrimQualType != nil {
		t.TrimQualType = domain.QualStat(strings.TrimSpace(*y.Trim.TrimQualType))
	}
	if y.Trim.LCMethod != nil {
		t.LCMethod = domain.LCMethod(strings.TrimSpace(*y.Trim.LCMethod))
	}
	if y.Trim.Derep != nil {
		d, err := domain.ParseDerep(*y.Trim.Derep...)
		if err != nil {
			return fmt.Errorf("trim.derep: %w", err)
		}
		t.Derep = d
	}

	f := &p.Filter
	setInt(&f.Threads, y.Filter.Threads)
	setInt(&f.RefGapOpenPenalty, y.Filter.RefGapOpenPenalty)
	setInt(&f.RefGapExtPenalty, y.Filter.RefGapExtPenalty)
	if y.Filter.Mode != nil {
		f.Mode = domain.AlignMode(strings.TrimSpace(*y.Filter.Mode))
	}
	if y.Filter.Sensitivity != nil {
		f.Sensitivity = domain.Sensitivity(strings.TrimSpace(*y.Filter.Sensitivity))
	}
	if y.Filter.ExcludeSeqs != nil {
		f.ExcludeSeqs = *y.Filter.ExcludeSeqs
	}

	setInt(&p.Index.Threads, y.Index.Threads)
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// derepValue accepts a list (`[1, 4]`) or a digit string (`"14"`).
type derepValue []string

func (d *derepValue) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*d = derepValue{n.Value}
		return nil
	case yaml.SequenceNode:
		out := make(derepValue, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: derep entries must be scalars", c.Line)
			}
			out = append(out, c.Value)
		}
		*d = out
		return nil
	default:
		return fmt.Errorf("line %d: derep must be a list or a string", n.Line)
	}
}

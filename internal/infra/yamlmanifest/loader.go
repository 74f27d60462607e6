package yamlmanifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
	"gopkg.in/yaml.v3"
)

type Loader struct {
	manifestsDir string
	checkFiles   bool
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{manifestsDir: "manifests", checkFiles: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type Option func(*Loader)

func WithManifestsDir(dir string) Option {
	return func(l *Loader) { l.manifestsDir = dir }
}

// WithCheckFiles controls whether every read file must exist at load time.
func WithCheckFiles(on bool) Option {
	return func(l *Loader) { l.checkFiles = on }
}

var _ ports.ManifestLoader = (*Loader)(nil)

// LoadManifest reads a YAML manifest, or scans path for Casava 1.8 file
// names when it is a directory.
func (l *Loader) LoadManifest(path string) (domain.Manifest, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return domain.Manifest{}, &domain.OpError{
			Op:   "yamlmanifest.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}
	if fi.IsDir() {
		return l.scanCasava(path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Manifest{}, &domain.OpError{
			Op:   "yamlmanifest.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var ym yamlManifest
	if err := yaml.Unmarshal(b, &ym); err != nil {
		return domain.Manifest{}, &domain.OpError{
			Op:   "yamlmanifest.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	return l.mapAndValidate(path, ym)
}

func (l *Loader) ListManifests(root string) ([]domain.ManifestRef, error) {
	dir := filepath.Join(root, l.manifestsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamlmanifest.list",
			Kind: domain.KindNotFound,
			Path: dir,
			Err:  err,
		}
	}

	var refs []domain.ManifestRef
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		p := filepath.Join(dir, name)
		n, _ := readManifestName(p)
		if strings.TrimSpace(n) == "" {
			n = strings.TrimSuffix(name, filepath.Ext(name))
		}

		refs = append(refs, domain.ManifestRef{Name: n, Path: p})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func readManifestName(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var v struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return "", err
	}
	return v.Name, nil
}

type yamlManifest struct {
	Name    string       `yaml:"name"`
	Samples []yamlSample `yaml:"samples"`
}

type yamlSample struct {
	ID      string `yaml:"id"`
	Forward string `yaml:"forward"`
	Reverse string `yaml:"reverse"`
}

func (l *Loader) mapAndValidate(path string, ym yamlManifest) (domain.Manifest, error) {
	name := strings.TrimSpace(ym.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(ym.Samples) == 0 {
		return domain.Manifest{}, invalidField(path, "samples", "at least one sample is required")
	}

	base := filepath.Dir(path)
	samples := make([]domain.Sample, 0, len(ym.Samples))
	for i, s := range ym.Samples {
		field := fmt.Sprintf("samples[%d]", i)
		if strings.TrimSpace(s.ID) == "" {
			return domain.Manifest{}, invalidField(path, field+".id", "sample id is required")
		}
		if strings.TrimSpace(s.Forward) == "" {
			return domain.Manifest{}, invalidField(path, field+".forward", "forward read file is required")
		}
		samples = append(samples, domain.Sample{
			ID:      strings.TrimSpace(s.ID),
			Forward: resolve(base, s.Forward),
			Reverse: resolve(base, s.Reverse),
		})
	}

	return l.finish(path, name, samples)
}

// finish applies the checks shared by YAML and directory manifests.
func (l *Loader) finish(path, name string, samples []domain.Sample) (domain.Manifest, error) {
	layout := samples[0].Layout()
	seenID := map[string]bool{}
	seenOut := map[string]string{}

	for i, s := range samples {
		field := fmt.Sprintf("samples[%d]", i)
		if seenID[s.ID] {
			return domain.Manifest{}, invalidField(path, field+".id", fmt.Sprintf("duplicate sample id %q", s.ID))
		}
		seenID[s.ID] = true

		if s.Layout() != layout {
			return domain.Manifest{}, invalidField(path, field,
				fmt.Sprintf("sample %q is %s-end but the manifest is %s-end", s.ID, s.Layout(), layout))
		}

		for _, in := range s.Inputs() {
			out := domain.OutputName(in)
			if other, dup := seenOut[out]; dup {
				return domain.Manifest{}, invalidField(path, field,
					fmt.Sprintf("output name %q of sample %q collides with sample %q", out, s.ID, other))
			}
			seenOut[out] = s.ID

			if l.checkFiles {
				if _, err := os.Stat(in); err != nil {
					return domain.Manifest{}, &domain.OpError{
						Op:   "yamlmanifest.validate",
						Kind: domain.KindNotFound,
						Path: in,
						Err:  fmt.Errorf("sample %s: %w", s.ID, err),
					}
				}
			}
		}
	}

	return domain.Manifest{
		Name:    name,
		Path:    path,
		Layout:  layout,
		Samples: samples,
	}, nil
}

func resolve(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "yamlmanifest.validate",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s", field, msg),
	}
}

package yamlmanifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aalvaropc/readprep/internal/domain"
)

const (
	casavaFwd = "_R1_001.fastq.gz"
	casavaRev = "_R2_001.fastq.gz"
)

// scanCasava builds a manifest from a directory of Casava 1.8 files named
// <sample>_S<n>_L<lane>_R{1,2}_001.fastq.gz. The sample id is the part
// before the first underscore.
func (l *Loader) scanCasava(dir string) (domain.Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.Manifest{}, &domain.OpError{
			Op:   "yamlmanifest.scan",
			Kind: domain.KindNotFound,
			Path: dir,
			Err:  err,
		}
	}

	present := map[string]bool{}
	var forward []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		present[name] = true
		if strings.HasSuffix(name, casavaFwd) {
			forward = append(forward, name)
		}
	}
	sort.Strings(forward)

	if len(forward) == 0 {
		return domain.Manifest{}, &domain.OpError{
			Op:   "yamlmanifest.scan",
			Kind: domain.KindInvalidConfig,
			Path: dir,
			Err:  fmt.Errorf("no *%s files found", casavaFwd),
		}
	}

	samples := make([]domain.Sample, 0, len(forward))
	matched := map[string]bool{}
	for _, f := range forward {
		id, _, _ := strings.Cut(f, "_")
		s := domain.Sample{ID: id, Forward: filepath.Join(dir, f)}

		mate := strings.TrimSuffix(f, casavaFwd) + casavaRev
		if present[mate] {
			s.Reverse = filepath.Join(dir, mate)
			matched[mate] = true
		}
		samples = append(samples, s)
	}

	for name := range present {
		if strings.HasSuffix(name, casavaRev) && !matched[name] {
			return domain.Manifest{}, &domain.OpError{
				Op:   "yamlmanifest.scan",
				Kind: domain.KindInvalidConfig,
				Path: filepath.Join(dir, name),
				Err:  fmt.Errorf("reverse read file has no forward mate"),
			}
		}
	}

	return l.finish(dir, filepath.Base(filepath.Clean(dir)), samples)
}

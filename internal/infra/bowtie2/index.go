package bowtie2

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

const DefaultBowtie2Build = "bowtie2-build"

// indexSuffixes are the files bowtie2-build writes next to the basename.
var indexSuffixes = []string{".1", ".2", ".3", ".4", ".rev.1", ".rev.2"}

// BuildIndexCommand returns the bowtie2-build invocation writing an index
// for reference under the basename prefix.
func BuildIndexCommand(exe string, p domain.IndexParams, reference, prefix string) domain.Command {
	if exe == "" {
		exe = DefaultBowtie2Build
	}
	return domain.Command{Name: exe, Args: []string{
		"--threads", strconv.Itoa(p.Threads),
		reference, prefix,
	}}
}

// IndexFiles returns the index files found for prefix. bowtie2-build picks
// .bt2 or .bt2l depending on the reference size; a complete set of either is
// accepted. Otherwise the first missing file is reported.
func IndexFiles(prefix string) ([]string, error) {
	var firstMissing string
	for _, ext := range []string{".bt2", ".bt2l"} {
		files := make([]string, 0, len(indexSuffixes))
		missing := ""
		for _, s := range indexSuffixes {
			path := prefix + s + ext
			if _, err := os.Stat(path); err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return nil, &domain.OpError{Op: "bowtie2.index", Kind: domain.KindEnvironment, Path: path, Err: err}
				}
				missing = path
				break
			}
			files = append(files, path)
		}
		if missing == "" {
			return files, nil
		}
		if firstMissing == "" {
			firstMissing = missing
		}
	}
	return nil, &domain.MissingOutputError{Path: firstMissing}
}

// IndexBuilder runs bowtie2-build over a reference. The sample's Forward is
// the reference FASTA and its ID the index basename.
type IndexBuilder struct {
	exe    string
	params domain.IndexParams
}

func NewIndexBuilder(params domain.IndexParams, exe string) *IndexBuilder {
	if exe == "" {
		exe = DefaultBowtie2Build
	}
	return &IndexBuilder{exe: exe, params: params}
}

var (
	_ ports.SampleTool     = (*IndexBuilder)(nil)
	_ ports.OutputResolver = (*IndexBuilder)(nil)
)

func (b *IndexBuilder) Pipeline() domain.Pipeline { return domain.PipelineIndex }

// Decompress is false: bowtie2-build reads gzip FASTA directly.
func (b *IndexBuilder) Decompress() bool { return false }

func (b *IndexBuilder) Plan(ws domain.Workspace, sample domain.Sample) (domain.ToolPlan, error) {
	prefix := filepath.Join(ws.Dir, sample.ID)
	return domain.ToolPlan{
		Commands: []domain.Command{BuildIndexCommand(b.exe, b.params, ws.Forward, prefix)},
	}, nil
}

// ResolveOutputs maps whichever index flavour was written to files of the
// same name in the output directory.
func (b *IndexBuilder) ResolveOutputs(ws domain.Workspace, sample domain.Sample, plan domain.ToolPlan) (domain.ToolPlan, error) {
	files, err := IndexFiles(filepath.Join(ws.Dir, sample.ID))
	if err != nil {
		var moe *domain.MissingOutputError
		if errors.As(err, &moe) {
			moe.Sample = sample.ID
		}
		return plan, err
	}
	plan.Outputs = make([]domain.OutputMapping, 0, len(files))
	for _, f := range files {
		plan.Outputs = append(plan.Outputs, domain.OutputMapping{
			Source: f,
			Target: filepath.Base(f),
			Role:   domain.RoleIndex,
		})
	}
	return plan, nil
}

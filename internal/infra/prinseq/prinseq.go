// Package prinseq builds PRINSEQ-lite invocations for quality trimming.
package prinseq

import (
	"path/filepath"
	"strconv"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

const (
	DefaultExecutable = "prinseq-lite.pl"

	// outBase is the -out_good prefix inside the workspace. PRINSEQ appends
	// .fastq (single) or _1.fastq/_2.fastq (paired).
	outBase = "outfile"
	// badOut tells PRINSEQ not to write rejected reads.
	badOut = "null"
)

type Tool struct {
	exe         string
	params      domain.TrimParams
	expandDerep bool
}

type Option func(*Tool)

// WithExecutable overrides the program name or path.
func WithExecutable(exe string) Option {
	return func(t *Tool) {
		if exe != "" {
			t.exe = exe
		}
	}
}

// WithExpandDerep adds the duplicate types implied by the selected ones
// before flattening (see domain.DerepMode.Token).
func WithExpandDerep(on bool) Option {
	return func(t *Tool) { t.expandDerep = on }
}

func New(params domain.TrimParams, opts ...Option) *Tool {
	t := &Tool{exe: DefaultExecutable, params: params}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ ports.SampleTool = (*Tool)(nil)

func (t *Tool) Pipeline() domain.Pipeline { return domain.PipelineTrim }

// Decompress is true: PRINSEQ-lite only reads plain FASTQ.
func (t *Tool) Decompress() bool { return true }

// Plan returns the single PRINSEQ command for the sample together with the
// output files it leaves in the workspace.
func (t *Tool) Plan(ws domain.Workspace, sample domain.Sample) (domain.ToolPlan, error) {
	base := filepath.Join(ws.Dir, outBase)
	cmd := domain.Command{
		Name: t.exe,
		Args: BuildArgs(t.params, t.expandDerep, base, ws.Forward, ws.Reverse),
	}

	plan := domain.ToolPlan{Commands: []domain.Command{cmd}}
	if sample.Layout() == domain.LayoutSingle {
		plan.Outputs = []domain.OutputMapping{{
			Source: base + ".fastq",
			Target: domain.OutputName(sample.Forward),
			Role:   domain.RoleForward,
		}}
		return plan, nil
	}

	plan.Outputs = []domain.OutputMapping{
		{Source: base + "_1.fastq", Target: domain.OutputName(sample.Forward), Role: domain.RoleForward},
		{Source: base + "_2.fastq", Target: domain.OutputName(sample.Reverse), Role: domain.RoleReverse},
	}
	return plan, nil
}

// BuildArgs lays out PRINSEQ-lite's arguments in their fixed order. reverse
// is empty for single-end data.
func BuildArgs(p domain.TrimParams, expandDerep bool, outGood, forward, reverse string) []string {
	args := []string{
		"-trim_qual_right", strconv.Itoa(p.TrimQualRight),
		"-trim_qual_type", string(p.TrimQualType),
		"-trim_qual_window", strconv.Itoa(p.TrimQualWindow),
		"-min_qual_mean", strconv.Itoa(p.MinQualMean),
		"-min_len", strconv.Itoa(p.MinLen),
		"-lc_method", string(p.LCMethod),
		"-lc_threshold", strconv.Itoa(p.LCThreshold),
		"-derep", p.Derep.Token(expandDerep),
		"-out_good", outGood,
		"-out_bad", badOut,
		"-fastq", forward,
	}
	if reverse != "" {
		args = append(args, "-fastq2", reverse)
	}
	return args
}

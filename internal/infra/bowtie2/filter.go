// Package bowtie2 builds the bowtie2/samtools command chains used to filter
// reads against a reference and to build bowtie2 indexes.
package bowtie2

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

const (
	DefaultBowtie2  = "bowtie2"
	DefaultSamtools = "samtools"

	alignedSAM  = "aligned.sam"
	filteredBAM = "filtered.bam"
	sortedBAM   = "sorted.bam"

	devNull = "/dev/null"
)

// Filter aligns each sample against an index and keeps either the unaligned
// reads (ExcludeSeqs) or the aligned ones.
type Filter struct {
	bowtie2  string
	samtools string
	index    string
	params   domain.FilterParams
}

type FilterOption func(*Filter)

func WithBowtie2(exe string) FilterOption {
	return func(f *Filter) {
		if exe != "" {
			f.bowtie2 = exe
		}
	}
}

func WithSamtools(exe string) FilterOption {
	return func(f *Filter) {
		if exe != "" {
			f.samtools = exe
		}
	}
}

// NewFilter returns a filter over the index with basename prefix index
// (the argument given to bowtie2 -x).
func NewFilter(index string, params domain.FilterParams, opts ...FilterOption) *Filter {
	f := &Filter{
		bowtie2:  DefaultBowtie2,
		samtools: DefaultSamtools,
		index:    index,
		params:   params,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ ports.SampleTool = (*Filter)(nil)

func (f *Filter) Pipeline() domain.Pipeline { return domain.PipelineFilter }

// Decompress is false: bowtie2 reads gzip input directly.
func (f *Filter) Decompress() bool { return false }

func (f *Filter) Plan(ws domain.Workspace, sample domain.Sample) (domain.ToolPlan, error) {
	paired := sample.Layout() == domain.LayoutPaired
	p := f.params
	helpers := strconv.Itoa(max(p.Threads-1, 0))

	sam := filepath.Join(ws.Dir, alignedSAM)
	bam := filepath.Join(ws.Dir, filteredBAM)

	align := domain.Command{Name: f.bowtie2, Args: AlignArgs(p, f.index, ws.Forward, ws.Reverse, sam)}

	view := domain.Command{Name: f.samtools, Args: []string{
		"view", "-b", sam, "-o", bam,
		filterFlag(p.ExcludeSeqs), samFlags(paired),
		"-@", helpers,
	}}

	plan := domain.ToolPlan{Commands: []domain.Command{align, view}}

	if !paired {
		out := filepath.Join(ws.Dir, "filtered.fastq")
		plan.Commands = append(plan.Commands, domain.Command{Name: f.samtools, Args: []string{
			"fastq", bam, "-n", "-0", out,
		}})
		plan.Outputs = []domain.OutputMapping{{
			Source: out,
			Target: domain.OutputName(sample.Forward),
			Role:   domain.RoleForward,
		}}
		return plan, nil
	}

	// Mates must be adjacent for samtools fastq to split them.
	sorted := filepath.Join(ws.Dir, sortedBAM)
	out1 := filepath.Join(ws.Dir, "filtered_1.fastq")
	out2 := filepath.Join(ws.Dir, "filtered_2.fastq")
	plan.Commands = append(plan.Commands,
		domain.Command{Name: f.samtools, Args: []string{
			"sort", "-n", bam, "-o", sorted, "-@", helpers,
		}},
		domain.Command{Name: f.samtools, Args: []string{
			"fastq", sorted, "-n",
			"-1", out1, "-2", out2,
			"-0", devNull, "-s", devNull,
		}},
	)
	plan.Outputs = []domain.OutputMapping{
		{Source: out1, Target: domain.OutputName(sample.Forward), Role: domain.RoleForward},
		{Source: out2, Target: domain.OutputName(sample.Reverse), Role: domain.RoleReverse},
	}
	return plan, nil
}

// AlignArgs builds the bowtie2 arguments. reverse is empty for single-end
// data.
func AlignArgs(p domain.FilterParams, index, forward, reverse, samOut string) []string {
	args := []string{
		"-p", strconv.Itoa(p.Threads),
		PresetFlag(p.Mode, p.Sensitivity),
		"--rfg", fmt.Sprintf("%d,%d", p.RefGapOpenPenalty, p.RefGapExtPenalty),
		"-x", index,
	}
	if reverse == "" {
		args = append(args, "-U", forward)
	} else {
		args = append(args, "-1", forward, "-2", reverse)
	}
	return append(args, "-S", samOut)
}

// PresetFlag returns the preset option, e.g. --sensitive-local in local mode
// and --sensitive end-to-end.
func PresetFlag(mode domain.AlignMode, sens domain.Sensitivity) string {
	flag := "--" + string(sens)
	if mode == domain.AlignLocal {
		flag += "-local"
	}
	return flag
}

// filterFlag selects reads with (-f) or without (-F) the unmapped bits.
func filterFlag(exclude bool) string {
	if exclude {
		return "-f"
	}
	return "-F"
}

// samFlags is 4 (read unmapped) for single-end and 12 (read and mate
// unmapped) for paired-end data.
func samFlags(paired bool) string {
	if paired {
		return "12"
	}
	return "4"
}

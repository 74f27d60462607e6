package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/bowtie2"
)

type filterFlags struct {
	index       string
	threads     int
	mode        string
	sensitivity string
	gapOpen     int
	gapExt      int
	keepAligned bool
}

func (f filterFlags) apply(c *cobra.Command, p *domain.FilterParams) {
	set := c.Flags().Changed
	if set("threads") {
		p.Threads = f.threads
	}
	if set("mode") {
		p.Mode = domain.AlignMode(f.mode)
	}
	if set("sensitivity") {
		p.Sensitivity = domain.Sensitivity(f.sensitivity)
	}
	if set("ref-gap-open-penalty") {
		p.RefGapOpenPenalty = f.gapOpen
	}
	if set("ref-gap-ext-penalty") {
		p.RefGapExtPenalty = f.gapExt
	}
	if set("keep-aligned") {
		p.ExcludeSeqs = !f.keepAligned
	}
}

func filterCmd() *cobra.Command {
	var bf batchFlags
	var ff filterFlags

	c := &cobra.Command{
		Use:   "filter",
		Short: "Remove (or keep) reads aligning to a reference with bowtie2",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, m, profile, err := bf.loadBatch()
			if err != nil {
				return err
			}
			ff.apply(cmd, &profile.Filter)

			index := resolveUserPath(ws, ff.index)
			if _, err := bowtie2.IndexFiles(index); err != nil {
				return fmt.Errorf("bowtie2 index %s: %w", index, err)
			}

			tool := bowtie2.NewFilter(index, profile.Filter,
				bowtie2.WithBowtie2(ws.cfg.Tools.Bowtie2),
				bowtie2.WithSamtools(ws.cfg.Tools.Samtools),
			)
			return bf.execute(cmd, ws, tool, m, profile)
		},
	}

	bf.register(c)

	d := domain.DefaultFilterParams()
	c.Flags().StringVarP(&ff.index, "index", "x", "", "bowtie2 index prefix (required)")
	c.Flags().IntVar(&ff.threads, "threads", d.Threads, "Threads per sample for bowtie2/samtools")
	c.Flags().StringVar(&ff.mode, "mode", string(d.Mode), "Alignment mode: local|global")
	c.Flags().StringVar(&ff.sensitivity, "sensitivity", string(d.Sensitivity), "Preset: very-fast|fast|sensitive|very-sensitive")
	c.Flags().IntVar(&ff.gapOpen, "ref-gap-open-penalty", d.RefGapOpenPenalty, "Reference gap open penalty")
	c.Flags().IntVar(&ff.gapExt, "ref-gap-ext-penalty", d.RefGapExtPenalty, "Reference gap extension penalty")
	c.Flags().BoolVar(&ff.keepAligned, "keep-aligned", !d.ExcludeSeqs, "Keep only aligned reads instead of removing them")

	_ = c.MarkFlagRequired("index")
	return c
}

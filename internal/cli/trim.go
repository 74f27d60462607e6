package cli

import (
	"github.com/spf13/cobra"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/prinseq"
)

type trimFlags struct {
	trimQualRight  int
	trimQualType   string
	trimQualWindow int
	minQualMean    int
	minLen         int
	lcMethod       string
	lcThreshold    int
	derep          string
}

// apply overrides profile values with the flags set on the command line.
func (f trimFlags) apply(c *cobra.Command, p *domain.TrimParams) error {
	set := c.Flags().Changed
	if set("trim-qual-right") {
		p.TrimQualRight = f.trimQualRight
	}
	if set("trim-qual-type") {
		p.TrimQualType = domain.QualStat(f.trimQualType)
	}
	if set("trim-qual-window") {
		p.TrimQualWindow = f.trimQualWindow
	}
	if set("min-qual-mean") {
		p.MinQualMean = f.minQualMean
	}
	if set("min-len") {
		p.MinLen = f.minLen
	}
	if set("lc-method") {
		p.LCMethod = domain.LCMethod(f.lcMethod)
	}
	if set("lc-threshold") {
		p.LCThreshold = f.lcThreshold
	}
	if set("derep") {
		d, err := domain.ParseDerep(f.derep)
		if err != nil {
			return &domain.OpError{Op: "params.flags", Kind: domain.KindInvalidConfig, Err: err}
		}
		p.Derep = d
	}
	return nil
}

func trimCmd() *cobra.Command {
	var bf batchFlags
	var tf trimFlags

	c := &cobra.Command{
		Use:   "trim",
		Short: "Quality-trim and filter reads with PRINSEQ-lite",
		Long: "Runs prinseq-lite.pl on every sample of a manifest. Single-end and\n" +
			"paired-end layouts are detected from the manifest.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, m, profile, err := bf.loadBatch()
			if err != nil {
				return err
			}
			if err := tf.apply(cmd, &profile.Trim); err != nil {
				return err
			}

			tool := prinseq.New(profile.Trim,
				prinseq.WithExecutable(ws.cfg.Tools.Prinseq),
				prinseq.WithExpandDerep(ws.cfg.Trim.ExpandDerep),
			)
			return bf.execute(cmd, ws, tool, m, profile)
		},
	}

	bf.register(c)

	d := domain.DefaultTrimParams()
	c.Flags().IntVar(&tf.trimQualRight, "trim-qual-right", d.TrimQualRight, "Trim 3' bases below this quality")
	c.Flags().StringVar(&tf.trimQualType, "trim-qual-type", string(d.TrimQualType), "Window statistic: min|mean|max|sum")
	c.Flags().IntVar(&tf.trimQualWindow, "trim-qual-window", d.TrimQualWindow, "Trimming window size")
	c.Flags().IntVar(&tf.minQualMean, "min-qual-mean", d.MinQualMean, "Drop reads with a lower mean quality")
	c.Flags().IntVar(&tf.minLen, "min-len", d.MinLen, "Drop reads shorter than this after trimming")
	c.Flags().StringVar(&tf.lcMethod, "lc-method", string(d.LCMethod), "Low-complexity filter: dust|entropy")
	c.Flags().IntVar(&tf.lcThreshold, "lc-threshold", d.LCThreshold, "Low-complexity threshold (0-100)")
	c.Flags().StringVar(&tf.derep, "derep", d.Derep.Token(false), "Duplicate types to remove, e.g. 14 or 1,4")
	return c
}

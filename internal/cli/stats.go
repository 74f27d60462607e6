package cli

import (
	"encoding/json"
	"fmt"

	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"

	"github.com/aalvaropc/readprep/internal/infra/fastqstats"
)

func statsCmd() *cobra.Command {
	var out string
	var format string

	cmd := &cobra.Command{
		Use:   "stats FILE...",
		Short: "Summarize FASTQ files (reads, lengths, quality, GC)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if format != "tsv" && format != "json" {
				return fmt.Errorf("unsupported format %q (expected tsv|json)", format)
			}

			outfh, err := xopen.Wopen(out)
			if err != nil {
				return fmt.Errorf("open %s: %w", out, err)
			}
			defer outfh.Close()

			all := make([]fastqstats.Stats, 0, len(args))
			for _, path := range args {
				st, err := fastqstats.Summarize(path)
				if err != nil {
					return err
				}
				all = append(all, st)
			}

			if format == "json" {
				enc := json.NewEncoder(outfh)
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}

			fmt.Fprintln(outfh, "file\treads\tbases\tmin_len\tmax_len\tavg_len\tavg_qual\tgc_pct")
			for _, st := range all {
				fmt.Fprintf(outfh, "%s\t%d\t%d\t%d\t%d\t%.1f\t%.1f\t%.2f\n",
					st.File, st.Reads, st.Bases, st.MinLen, st.MaxLen, st.AvgLen, st.AvgQual, st.GCPct)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "-", `Output file ("-" for stdout, ".gz" suffix compresses)`)
	cmd.Flags().StringVar(&format, "format", "tsv", "Output format: tsv|json")
	return cmd
}

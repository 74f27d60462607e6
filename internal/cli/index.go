package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/bowtie2"
	"github.com/aalvaropc/readprep/internal/infra/collector"
	"github.com/aalvaropc/readprep/internal/infra/outdir"
	"github.com/aalvaropc/readprep/internal/infra/yamlparams"
	"github.com/aalvaropc/readprep/internal/usecase"
)

func indexCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "index",
		Short: "Manage bowtie2 reference indexes",
	}

	c.AddCommand(indexBuildCmd())
	return c
}

func indexBuildCmd() *cobra.Command {
	var workspace string
	var reference string
	var out string
	var name string
	var profileArg string
	var threads int
	var noSave bool
	var format string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a bowtie2 index from a reference FASTA",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}

			profile, err := ws.params.LoadProfile(resolveProfileArg(ws, profileArg))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threads") {
				profile.Index.Threads = threads
			}
			if err := yamlparams.Validate(profile); err != nil {
				return err
			}

			ref := resolveUserPath(ws, reference)
			if !fileExists(ref) {
				return &domain.OpError{Op: "index.build", Kind: domain.KindNotFound, Path: ref, Err: os.ErrNotExist}
			}
			if strings.TrimSpace(name) == "" {
				name = defaultIndexName(ref)
			}

			dst := resolveUserPath(ws, out)
			if fileExists(dst) {
				return fmt.Errorf("output directory already exists: %s", dst)
			}

			opts := []usecase.ProcessOption{
				usecase.WithProfileName(profile.Name),
				usecase.WithLogger(ws.log),
			}
			if !noSave {
				opts = append(opts, usecase.WithArtifactStore(ws.store))
			}

			process := usecase.NewProcessSamples(
				bowtie2.NewIndexBuilder(profile.Index, ws.cfg.Tools.Bowtie2Build),
				ws.stager(),
				ws.runner(ws.cfg.Execution.Timeout, os.Stderr),
				collector.New(collector.WithRawCopy(), collector.WithLogger(ws.log)),
				opts...,
			)

			run, runID, err := usecase.NewBuildIndex(process).Execute(cmd.Context(), ref, name, outdir.New(dst, outdir.WithLogger(ws.log)))
			if perr := printRun(cmd.OutOrStdout(), run, runID, format); perr != nil && err == nil {
				err = perr
			}
			if err == nil && format != "json" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nUse with: readprep filter -x %s ...\n", filepath.Join(dst, name))
			}
			return err
		},
	}

	d := domain.DefaultIndexParams()
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	cmd.Flags().StringVarP(&reference, "reference", "r", "", "Reference FASTA, plain or gzip (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory (required; must not exist yet)")
	cmd.Flags().StringVar(&name, "name", "", "Index basename (default: reference file name)")
	cmd.Flags().StringVarP(&profileArg, "params", "p", "", "Parameter profile name or path")
	cmd.Flags().IntVar(&threads, "threads", d.Threads, "bowtie2-build threads")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save a run report under runs/")
	cmd.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")

	_ = cmd.MarkFlagRequired("reference")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// defaultIndexName strips sequence and compression extensions:
// refs/GRCh38.fa.gz -> GRCh38.
func defaultIndexName(ref string) string {
	base := filepath.Base(ref)
	base = strings.TrimSuffix(base, ".gz")
	for _, ext := range []string{".fasta", ".fa", ".fna", ".fas"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

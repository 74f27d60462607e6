package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/readprep/internal/usecase"
)

func validateCmd() *cobra.Command {
	var workspace string
	var manifest string
	var profile string
	var pipeline string

	c := &cobra.Command{
		Use:   "validate",
		Short: "Validate a manifest, a parameter profile and the tools on PATH (runs nothing)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}

			manifestPath, err := resolveManifestPath(ws, manifest)
			if err != nil {
				return err
			}

			tools, err := toolsFor(ws, pipeline)
			if err != nil {
				return err
			}

			uc := usecase.NewValidateManifest(ws.manifests, ws.params)
			rep, err := uc.Execute(cmd.Context(), manifestPath, resolveProfileArg(ws, profile), tools)

			w := cmd.OutOrStdout()
			if rep.Manifest.Path != "" {
				fmt.Fprintf(w, "Manifest: %s (%d samples, %s)\n", rep.Manifest.Path, len(rep.Manifest.Samples), rep.Manifest.Layout)
			}
			if rep.Profile.Name != "" {
				fmt.Fprintf(w, "Params:   %s\n", rep.Profile.Name)
			}
			for _, t := range tools {
				if p, ok := rep.Tools[t]; ok {
					fmt.Fprintf(w, "Tool:     %s -> %s\n", t, p)
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(w, "OK")
			return nil
		},
	}

	c.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	c.Flags().StringVarP(&manifest, "manifest", "m", "", "Manifest name, path, or Casava directory (required)")
	c.Flags().StringVarP(&profile, "params", "p", "", "Parameter profile name or path")
	c.Flags().StringVar(&pipeline, "pipeline", "trim", "Tools to check: trim|filter|none")

	_ = c.MarkFlagRequired("manifest")
	return c
}

func toolsFor(ws *workspaceCtx, pipeline string) ([]string, error) {
	switch pipeline {
	case "trim":
		return []string{ws.cfg.Tools.Prinseq}, nil
	case "filter":
		return []string{ws.cfg.Tools.Bowtie2, ws.cfg.Tools.Samtools}, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported pipeline %q (expected trim|filter|none)", pipeline)
	}
}

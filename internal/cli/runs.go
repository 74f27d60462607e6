package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/readprep/internal/app/template"
	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/runstore"
	"github.com/aalvaropc/readprep/internal/usecase/query"
)

func runsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "runs",
		Short: "Inspect saved run reports",
	}

	c.AddCommand(runsListCmd(), runsShowCmd())
	return c
}

func runsListCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}

			refs, err := ws.store.ListRuns()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(refs) == 0 {
				fmt.Fprintln(w, "(no runs found)")
				return nil
			}
			for _, r := range refs {
				fmt.Fprintf(w, "%s  %s  %-6s  %-9s  %d sample(s)\n",
					shortID(r.ID), r.StartedAt.Local().Format(time.DateTime), r.Pipeline, r.Status, r.Samples)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	return cmd
}

func runsShowCmd() *cobra.Command {
	var workspace string
	var expr string
	var reproduce string

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print a run report, a JSONPath query over it, or its commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}

			raw, err := ws.store.LoadRunJSON(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch {
			case expr != "":
				out, err := query.Eval(raw, expr)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, out)
				return nil

			case reproduce != "":
				var run runstore.RunDTO
				if err := json.Unmarshal(raw, &run); err != nil {
					return &domain.OpError{Op: "runs.show", Kind: domain.KindDecode, Err: err}
				}
				for _, s := range run.Samples {
					lines, err := template.RenderCommands(s.Commands, reproduce)
					if err != nil {
						return fmt.Errorf("sample %s: %w", s.ID, err)
					}
					fmt.Fprintf(w, "# %s (%s)\n", s.ID, s.Status)
					for _, l := range lines {
						fmt.Fprintln(w, l)
					}
				}
				return nil
			}

			_, err = w.Write(raw)
			return err
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	cmd.Flags().StringVarP(&expr, "query", "q", "", "JSONPath expression, e.g. $.samples[*].status")
	cmd.Flags().StringVar(&reproduce, "reproduce", "", "Print the stored commands rooted at this scratch directory")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

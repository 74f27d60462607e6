package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func manifestsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "manifests",
		Short: "Manage sample manifests in a workspace",
	}

	c.AddCommand(manifestsListCmd())
	return c
}

func manifestsListCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}

			refs, err := ws.manifests.ListManifests(ws.root)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(refs) == 0 {
				fmt.Fprintln(w, "(no manifests found)")
				return nil
			}

			fmt.Fprintf(w, "Workspace: %s\n\n", ws.root)
			for _, r := range refs {
				rel, _ := filepath.Rel(ws.root, r.Path)
				fmt.Fprintf(w, "- %s  (%s)\n", r.Name, rel)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	return cmd
}

func paramsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "params",
		Short: "Manage parameter profiles in a workspace",
	}

	c.AddCommand(paramsListCmd())
	return c
}

func paramsListCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List parameter profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}

			refs, err := ws.paramsCatalog.ListProfiles(ws.root)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(refs) == 0 {
				fmt.Fprintln(w, "(no profiles found; the built-in default is used)")
				return nil
			}

			fmt.Fprintf(w, "Workspace: %s\n\n", ws.root)
			for _, r := range refs {
				rel, _ := filepath.Rel(ws.root, r.Path)
				mark := " "
				if r.Name == ws.cfg.Defaults.Params {
					mark = "*"
				}
				fmt.Fprintf(w, "%s %s  (%s)\n", mark, r.Name, rel)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	return cmd
}

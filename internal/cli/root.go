package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aalvaropc/readprep/internal/buildinfo"
	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/logger"
	"github.com/aalvaropc/readprep/internal/infra/workspacefinder"
	"github.com/aalvaropc/readprep/internal/ui/tui"
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	var verbose bool
	var cleanup func() error

	cmd := &cobra.Command{
		Use:           "readprep",
		Short:         "readprep: staged PRINSEQ-lite and bowtie2 runs over sample manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			wd, err := os.Getwd()
			if err != nil {
				wd = "."
			}
			wd, _ = filepath.Abs(wd)

			logRoot := wd
			if root, ferr := workspacefinder.NewFinder().FindRoot(wd); ferr == nil && root != "" {
				logRoot = root
			}

			var mirror io.Writer
			if verbose {
				mirror = os.Stderr
			}
			cleanup, _ = logger.Setup(logger.Config{
				Root:   logRoot,
				Debug:  debug,
				Mirror: mirror,
			})
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if cleanup != nil {
				return cleanup()
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging to .readprep/logs/readprep.log")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also print log lines to stderr")

	cmd.AddCommand(
		initCmd(),
		trimCmd(),
		filterCmd(),
		indexCmd(),
		validateCmd(),
		manifestsCmd(),
		paramsCmd(),
		runsCmd(),
		statsCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

// printError writes the short operator message in red and the full error
// chain below it.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	msg := tui.UserMessage(err)
	if msg == "" || msg == "Unexpected error (see logs)" {
		red.Fprintf(w, "error: %v\n", err)
		return
	}
	red.Fprintf(w, "error: %s\n", msg)
	fmt.Fprintf(w, "  %v\n", err)

	var be *domain.BatchError
	if errors.As(err, &be) {
		for _, f := range be.Failed {
			fmt.Fprintf(w, "  - %s: %s\n", f.Sample, tui.UserMessage(f.Err))
		}
	}
}

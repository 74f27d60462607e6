package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/fastqstats"
	"github.com/aalvaropc/readprep/internal/infra/logger"
	"github.com/aalvaropc/readprep/internal/infra/outdir"
	"github.com/aalvaropc/readprep/internal/infra/runstore"
	"github.com/aalvaropc/readprep/internal/infra/yamlparams"
	"github.com/aalvaropc/readprep/internal/ports"
	"github.com/aalvaropc/readprep/internal/ui/tui"
	"github.com/aalvaropc/readprep/internal/usecase"
)

// batchFlags are shared by every command that processes a manifest.
type batchFlags struct {
	workspace string
	manifest  string
	out       string
	profile   string
	workers   int
	keepGoing bool
	timeout   time.Duration
	tui       bool
	noSave    bool
	format    string
}

func (f *batchFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&f.workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	c.Flags().StringVarP(&f.manifest, "manifest", "m", "", "Manifest name, path, or Casava directory (required)")
	c.Flags().StringVarP(&f.out, "out", "o", "", "Output directory (required; must not exist yet)")
	c.Flags().StringVarP(&f.profile, "params", "p", "", "Parameter profile name or path (default from readprep.yaml)")
	c.Flags().IntVar(&f.workers, "workers", 0, "Samples processed at once (default from readprep.yaml)")
	c.Flags().BoolVar(&f.keepGoing, "keep-going", false, "Keep processing after a sample fails")
	c.Flags().DurationVar(&f.timeout, "timeout", 0, "Per-command timeout, e.g. 2h (default from readprep.yaml)")
	c.Flags().BoolVar(&f.tui, "tui", false, "Show a live progress view")
	c.Flags().BoolVar(&f.noSave, "no-save", false, "Do not save a run report under runs/")
	c.Flags().StringVar(&f.format, "format", "pretty", "Output format: pretty|json")

	_ = c.MarkFlagRequired("manifest")
	_ = c.MarkFlagRequired("out")
}

// loadBatch resolves the workspace, manifest and profile for a batch command.
func (f *batchFlags) loadBatch() (*workspaceCtx, domain.Manifest, domain.Profile, error) {
	ws, err := loadWorkspace(f.workspace)
	if err != nil {
		return nil, domain.Manifest{}, domain.Profile{}, err
	}

	path, err := resolveManifestPath(ws, f.manifest)
	if err != nil {
		return nil, domain.Manifest{}, domain.Profile{}, err
	}
	m, err := ws.manifests.LoadManifest(path)
	if err != nil {
		return nil, domain.Manifest{}, domain.Profile{}, err
	}

	p, err := ws.params.LoadProfile(resolveProfileArg(ws, f.profile))
	if err != nil {
		return nil, domain.Manifest{}, domain.Profile{}, err
	}
	return ws, m, p, nil
}

// execute runs tool over m into the output directory and prints the result.
func (f *batchFlags) execute(cmd *cobra.Command, ws *workspaceCtx, tool ports.SampleTool, m domain.Manifest, profile domain.Profile, extra ...usecase.ProcessOption) error {
	if err := yamlparams.Validate(profile); err != nil {
		return err
	}

	exec := ws.cfg.Execution
	if f.workers > 0 {
		exec.Workers = f.workers
	}
	if f.timeout > 0 {
		exec.Timeout = f.timeout
	}
	if f.keepGoing {
		exec.OnError = domain.OnErrorContinue
	}

	out := resolveUserPath(ws, f.out)
	if fileExists(out) {
		return &domain.OpError{
			Op:   "outdir.check",
			Kind: domain.KindInvalidConfig,
			Path: out,
			Err:  fmt.Errorf("output directory already exists: %w", domain.ErrInvalidConfig),
		}
	}

	toolOut, toolLog, closeToolOut, err := toolSink(ws.root, tool.Pipeline(), f.tui)
	if err != nil {
		return err
	}
	defer closeToolOut()
	if toolLog != "" {
		ws.log.Info("tool.output", "path", toolLog)
	}

	opts := []usecase.ProcessOption{
		usecase.WithWorkers(exec.Workers),
		usecase.WithFailurePolicy(exec.OnError),
		usecase.WithProfileName(profile.Name),
		usecase.WithLogger(ws.log),
	}
	if !f.noSave {
		opts = append(opts, usecase.WithArtifactStore(ws.store))
	}
	if ws.cfg.Execution.Stats {
		opts = append(opts, usecase.WithInputCounter(fastqstats.NewCounter()))
	}
	opts = append(opts, extra...)

	ws.cfg.Execution = exec
	runner := ws.runner(exec.Timeout, toolOut)
	sink := outdir.New(out, outdir.WithLogger(ws.log))

	batch := func(ctx context.Context, observe func(domain.SampleEvent)) (domain.RunArtifact, string, error) {
		o := append(opts, usecase.WithObserver(observe))
		uc := usecase.NewProcessSamples(tool, ws.stager(), runner, ws.collector(), o...)
		return uc.Execute(ctx, m, sink)
	}

	var (
		run   domain.RunArtifact
		runID string
	)
	if f.tui {
		run, runID, err = tui.Run(cmd.Context(), tui.Deps{
			Title:   fmt.Sprintf("readprep %s · %s", tool.Pipeline(), manifestLabel(m)),
			Samples: sampleIDs(m),
			Logger:  ws.log,
		}, batch)
		fmt.Fprintf(cmd.ErrOrStderr(), "Tool output: %s\n", toolLog)
	} else {
		run, runID, err = batch(cmd.Context(), nil)
	}

	if perr := printRun(cmd.OutOrStdout(), run, runID, f.format); perr != nil && err == nil {
		err = perr
	}
	return err
}

// toolSink picks where external tool stdout/stderr goes: the terminal, or a
// per-run file under .readprep/logs/tools while the progress view owns it.
func toolSink(root string, p domain.Pipeline, inView bool) (io.Writer, string, func() error, error) {
	if !inView {
		return os.Stderr, "", func() error { return nil }, nil
	}
	f, err := logger.ToolOutput(root, string(p), time.Now())
	if err != nil {
		return nil, "", nil, &domain.OpError{Op: "logger.tool_output", Kind: domain.KindEnvironment, Path: root, Err: err}
	}
	return f, f.Name(), f.Close, nil
}

func manifestLabel(m domain.Manifest) string {
	if m.Name != "" {
		return m.Name
	}
	return m.Path
}

func sampleIDs(m domain.Manifest) []string {
	ids := make([]string, len(m.Samples))
	for i, s := range m.Samples {
		ids[i] = s.ID
	}
	return ids
}

func printRun(w io.Writer, run domain.RunArtifact, runID string, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		dto := runstore.NewRunDTO(run)
		dto.ID = runID
		return enc.Encode(dto)
	case "pretty", "":
		printPrettyRun(w, run, runID)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}
}

func printPrettyRun(w io.Writer, run domain.RunArtifact, runID string) {
	total := run.FinishedAt.Sub(run.StartedAt)
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		total = 0
	}

	fmt.Fprintf(w, "Pipeline:   %s\n", run.Pipeline)
	fmt.Fprintf(w, "Manifest:   %s\n", run.ManifestPath)
	fmt.Fprintf(w, "Profile:    %s\n", run.Profile)
	fmt.Fprintf(w, "Output:     %s\n", run.OutputDir)
	fmt.Fprintf(w, "Status:     %s\n", run.Status)
	fmt.Fprintf(w, "Duration:   %s\n", total.Round(time.Millisecond))
	if runID != "" {
		fmt.Fprintf(w, "Run ID:     %s\n", runID)
	}
	fmt.Fprintln(w)

	for _, s := range run.Samples {
		fmt.Fprintf(w, "- [%s] %s (%s) %dms\n", statusMark(s.Status), s.SampleID, s.Layout, s.DurationMS)

		if s.Error != nil {
			fmt.Fprintf(w, "  error: %s (%s)\n", s.Error.Message, s.Error.Kind)
			for _, c := range s.Commands {
				fmt.Fprintf(w, "  cmd: %s\n", c)
			}
		}
		if s.HasReadsIn {
			fmt.Fprintf(w, "  reads in: %d\n", s.ReadsIn)
		}
		for _, o := range s.Outputs {
			switch {
			case o.Empty:
				fmt.Fprintf(w, "  -> %s (empty)\n", o.Name)
			case o.HasReads:
				fmt.Fprintf(w, "  -> %s (%d reads)\n", o.Name, o.Reads)
			default:
				fmt.Fprintf(w, "  -> %s\n", o.Name)
			}
		}
	}
}

func statusMark(s domain.SampleStatus) string {
	switch s {
	case domain.SampleSucceeded:
		return "OK"
	case domain.SampleFailed:
		return "FAIL"
	case domain.SampleSkipped:
		return "SKIP"
	case domain.SampleDiscarded:
		return "DROP"
	default:
		return "----"
	}
}

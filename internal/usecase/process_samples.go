package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/exascience/pargo/parallel"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

// ProcessSamples drives one tool over every sample of a manifest: stage,
// run the planned commands, collect the outputs, release the workspace.
type ProcessSamples struct {
	tool      ports.SampleTool
	stager    ports.Stager
	runner    ports.CommandRunner
	collector ports.ResultCollector

	store    ports.ArtifactStore
	counter  ports.ReadCounter
	workers  int
	onError  domain.FailurePolicy
	profile  string
	observer func(domain.SampleEvent)
	log      *slog.Logger
	now      func() time.Time
}

type ProcessOption func(*ProcessSamples)

// WithWorkers bounds how many samples are processed at once.
func WithWorkers(n int) ProcessOption {
	return func(uc *ProcessSamples) {
		if n > 0 {
			uc.workers = n
		}
	}
}

func WithFailurePolicy(p domain.FailurePolicy) ProcessOption {
	return func(uc *ProcessSamples) {
		if p != "" {
			uc.onError = p
		}
	}
}

// WithArtifactStore saves a run report after every batch.
func WithArtifactStore(s ports.ArtifactStore) ProcessOption {
	return func(uc *ProcessSamples) { uc.store = s }
}

// WithInputCounter records how many reads each sample had going in.
func WithInputCounter(rc ports.ReadCounter) ProcessOption {
	return func(uc *ProcessSamples) { uc.counter = rc }
}

// WithObserver receives progress events. Calls are serialized.
func WithObserver(fn func(domain.SampleEvent)) ProcessOption {
	return func(uc *ProcessSamples) { uc.observer = fn }
}

func WithProfileName(name string) ProcessOption {
	return func(uc *ProcessSamples) { uc.profile = name }
}

func WithLogger(l *slog.Logger) ProcessOption {
	return func(uc *ProcessSamples) {
		if l != nil {
			uc.log = l
		}
	}
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) ProcessOption {
	return func(uc *ProcessSamples) { uc.now = now }
}

func NewProcessSamples(tool ports.SampleTool, st ports.Stager, rr ports.CommandRunner, rc ports.ResultCollector, opts ...ProcessOption) *ProcessSamples {
	uc := &ProcessSamples{
		tool:      tool,
		stager:    st,
		runner:    rr,
		collector: rc,
		workers:   1,
		onError:   domain.OnErrorAbort,
		log:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute processes the manifest in order and writes results to sink.
//
// When sink also implements ports.SinkCommitter it is committed on success
// and discarded when the batch aborts. With the continue policy successful
// samples are committed and a *domain.BatchError lists the failures.
//
// The returned run id is empty when no artifact store is configured.
func (uc *ProcessSamples) Execute(ctx context.Context, m domain.Manifest, sink ports.OutputSink) (domain.RunArtifact, string, error) {
	run := domain.RunArtifact{
		Pipeline:     uc.tool.Pipeline(),
		ManifestPath: m.Path,
		Profile:      uc.profile,
		StartedAt:    uc.now(),
		Samples:      make([]domain.SampleResult, len(m.Samples)),
	}
	if d, ok := sink.(interface{ Dir() string }); ok {
		run.OutputDir = d.Dir()
	}

	n := len(m.Samples)
	for i, s := range m.Samples {
		run.Samples[i] = domain.SampleResult{
			SampleID: s.ID,
			Layout:   s.Layout(),
			Inputs:   s.Inputs(),
			Status:   domain.SamplePending,
		}
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := &batch{uc: uc, ctx: batchCtx, cancel: cancel, sink: sink, total: n, samples: m.Samples, results: run.Samples}
	b.errs = make([]error, n)

	for i, s := range m.Samples {
		b.emit(domain.SampleEvent{Index: i, Total: n, SampleID: s.ID, Stage: domain.StageQueued})
	}

	uc.log.Info("batch.start",
		"pipeline", run.Pipeline,
		"manifest", m.Path,
		"samples", n,
		"workers", uc.workerCount(n),
		"on_error", uc.onError,
	)

	if w := uc.workerCount(n); w <= 1 {
		for i := 0; i < n; i++ {
			b.process(i)
		}
	} else {
		parallel.Range(0, n, w, func(low, high int) {
			for i := low; i < high; i++ {
				b.process(i)
			}
		})
	}

	run.FinishedAt = uc.now()
	err := b.outcome(ctx, &run)

	if c, ok := sink.(ports.SinkCommitter); ok {
		if run.Status == domain.RunFailed {
			if derr := c.Discard(); derr != nil {
				uc.log.Error("batch.discard_failed", "error", derr.Error())
			}
			for i := range run.Samples {
				if r := &run.Samples[i]; r.Status == domain.SampleSucceeded {
					r.Status = domain.SampleDiscarded
					r.Outputs = nil
				}
			}
		} else if cerr := c.Commit(); cerr != nil {
			run.Status = domain.RunFailed
			if err == nil {
				err = cerr
			}
		}
	}

	uc.log.Info("batch.finish",
		"pipeline", run.Pipeline,
		"status", run.Status,
		"duration_ms", run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	)

	var id string
	if uc.store != nil {
		sid, serr := uc.store.SaveRun(run)
		if serr != nil {
			uc.log.Error("run.save_failed", "error", serr.Error())
			if err == nil {
				err = serr
			}
		} else {
			id = sid
			run.ID = sid
			uc.log.Info("run.saved", "id", sid)
		}
	}

	return run, id, err
}

func (uc *ProcessSamples) workerCount(n int) int {
	w := uc.workers
	if w > n {
		w = n
	}
	return w
}

type batch struct {
	uc      *ProcessSamples
	ctx     context.Context
	cancel  context.CancelFunc
	sink    ports.OutputSink
	total   int
	samples []domain.Sample
	results []domain.SampleResult
	errs    []error

	emitMu sync.Mutex

	abortMu sync.Mutex
	first   error // the failure that aborted the batch
}

func (b *batch) abortedBy() error {
	b.abortMu.Lock()
	defer b.abortMu.Unlock()
	return b.first
}

func (b *batch) emit(ev domain.SampleEvent) {
	if b.uc.observer == nil {
		return
	}
	b.emitMu.Lock()
	defer b.emitMu.Unlock()
	b.uc.observer(ev)
}

// process handles sample i. Each call only touches slot i of results/errs.
func (b *batch) process(i int) {
	s := b.samples[i]
	res := &b.results[i]
	ev := domain.SampleEvent{Index: i, Total: b.total, SampleID: s.ID}

	if err := b.ctx.Err(); err != nil {
		res.Status = domain.SampleSkipped
		return
	}

	start := b.uc.now()
	res.StartedAt = start
	defer func() { res.DurationMS = b.uc.now().Sub(start).Milliseconds() }()

	err := b.run(s, res, ev)
	if err == nil {
		res.Status = domain.SampleSucceeded
		ev.Stage = domain.StageDone
		b.emit(ev)
		b.uc.log.Info("sample.done", "sample", s.ID, "outputs", len(res.Outputs))
		return
	}

	// Samples interrupted because another one failed are skipped, not failed.
	if errors.Is(err, context.Canceled) && b.abortedBy() != nil {
		res.Status = domain.SampleSkipped
		return
	}

	serr := &domain.SampleError{Sample: s.ID, Err: err}
	b.errs[i] = serr
	res.Status = domain.SampleFailed
	res.Error = domain.NewRunError(err)

	ev.Stage = domain.StageFailed
	ev.Err = serr
	b.emit(ev)
	b.uc.log.Error("sample.failed", "sample", s.ID, "kind", res.Error.Kind, "error", err.Error())

	if b.uc.onError == domain.OnErrorAbort {
		b.abortMu.Lock()
		if b.first == nil {
			b.first = serr
			b.cancel()
		}
		b.abortMu.Unlock()
	}
}

func (b *batch) run(s domain.Sample, res *domain.SampleResult, ev domain.SampleEvent) (err error) {
	uc := b.uc

	ev.Stage = domain.StageStaging
	b.emit(ev)

	ws, err := uc.stager.Stage(b.ctx, s, uc.tool.Decompress())
	if err != nil {
		return err
	}
	defer func() {
		if rerr := uc.stager.Release(ws); rerr != nil {
			uc.log.Warn("sample.release_failed", "sample", s.ID, "workspace", ws.Dir, "error", rerr.Error())
			if err == nil {
				err = rerr
			}
		}
	}()

	if uc.counter != nil {
		var total int64
		counted := true
		for _, in := range s.Inputs() {
			n, cerr := uc.counter.CountReads(in)
			if cerr != nil {
				uc.log.Warn("sample.count_failed", "sample", s.ID, "input", in, "error", cerr.Error())
				counted = false
				break
			}
			total += n
		}
		res.ReadsIn, res.HasReadsIn = total, counted
	}

	plan, err := uc.tool.Plan(ws, s)
	if err != nil {
		return err
	}
	res.Commands = make([]string, 0, len(plan.Commands))
	for _, c := range plan.Commands {
		res.Commands = append(res.Commands, c.Template(ws.Dir))
	}

	ev.Stage = domain.StageRunning
	b.emit(ev)

	for _, c := range plan.Commands {
		tmpl := c.Template(ws.Dir)
		uc.log.Debug("tool.start", "sample", s.ID, "cmd", c.String(), "template", tmpl)
		if err := uc.runner.Run(b.ctx, c); err != nil {
			var tie *domain.ToolInvocationError
			if errors.As(err, &tie) {
				tie.Sample = s.ID
				tie.Template = tmpl
			}
			return err
		}
	}

	if r, ok := uc.tool.(ports.OutputResolver); ok {
		if plan, err = r.ResolveOutputs(ws, s, plan); err != nil {
			return err
		}
	}

	ev.Stage = domain.StageCollecting
	b.emit(ev)

	outs, err := uc.collector.Collect(b.ctx, s, plan, b.sink)
	if err != nil {
		b.rollback(s, outs)
		return err
	}
	res.Outputs = outs
	return nil
}

// rollback takes back the files a failed sample already wrote, so a sample
// never lands half in the output.
func (b *batch) rollback(s domain.Sample, written []domain.CollectedOutput) {
	if len(written) == 0 {
		return
	}
	r, ok := b.sink.(ports.SinkRemover)
	if !ok {
		b.uc.log.Warn("sample.rollback_unsupported", "sample", s.ID, "outputs", len(written))
		return
	}
	for _, o := range written {
		if err := r.Remove(o.Name); err != nil {
			b.uc.log.Error("sample.rollback_failed", "sample", s.ID, "output", o.Name, "error", err.Error())
			continue
		}
		b.uc.log.Debug("sample.rolled_back", "sample", s.ID, "output", o.Name)
	}
}

// outcome sets the run status and returns the batch error, if any.
func (b *batch) outcome(parent context.Context, run *domain.RunArtifact) error {
	var failed []*domain.SampleError
	succeeded := 0
	for i, e := range b.errs {
		if e != nil {
			var se *domain.SampleError
			if errors.As(e, &se) {
				failed = append(failed, se)
			}
		}
		if b.results[i].Status == domain.SampleSucceeded {
			succeeded++
		}
	}

	switch first := b.abortedBy(); {
	case first != nil:
		run.Status = domain.RunFailed
		return first
	case parent.Err() != nil && succeeded < len(b.results):
		run.Status = domain.RunFailed
		return parent.Err()
	case len(failed) == 0:
		run.Status = domain.RunSucceeded
		return nil
	case succeeded > 0:
		run.Status = domain.RunPartial
	default:
		run.Status = domain.RunFailed
	}
	return &domain.BatchError{Failed: failed}
}

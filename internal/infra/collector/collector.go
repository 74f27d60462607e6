// Package collector moves raw tool outputs from a workspace into the output
// sink, gzip-compressed and under their final names.
package collector

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/gzipio"
	"github.com/aalvaropc/readprep/internal/ports"
)

type Collector struct {
	missing  domain.MissingOutputPolicy
	counter  ports.ReadCounter
	compress bool
	log      *slog.Logger
}

type Option func(*Collector)

// WithMissingOutput sets what an absent output means. Default is an error.
func WithMissingOutput(p domain.MissingOutputPolicy) Option {
	return func(c *Collector) {
		if p != "" {
			c.missing = p
		}
	}
}

// WithReadCounter enables per-file read counts.
func WithReadCounter(rc ports.ReadCounter) Option {
	return func(c *Collector) { c.counter = rc }
}

// WithRawCopy writes outputs as-is instead of compressing them. Used for
// index files.
func WithRawCopy() Option {
	return func(c *Collector) { c.compress = false }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.log = l
		}
	}
}

func New(opts ...Option) *Collector {
	c := &Collector{
		missing:  domain.MissingOutputFail,
		compress: true,
		log:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.ResultCollector = (*Collector)(nil)

// Collect writes every output declared by plan to sink, in declaration
// order. It stops at the first failure; what was already written stays in
// the sink for the caller to discard.
func (c *Collector) Collect(ctx context.Context, sample domain.Sample, plan domain.ToolPlan, sink ports.OutputSink) ([]domain.CollectedOutput, error) {
	out := make([]domain.CollectedOutput, 0, len(plan.Outputs))

	// A sample either lands completely or not at all.
	if c.missing != domain.MissingOutputEmpty {
		for _, m := range plan.Outputs {
			if _, err := os.Stat(m.Source); errors.Is(err, os.ErrNotExist) {
				return out, &domain.MissingOutputError{Sample: sample.ID, Path: m.Source}
			}
		}
	}

	for _, m := range plan.Outputs {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		co := domain.CollectedOutput{Name: m.Target, Role: m.Role}

		f, err := os.Open(m.Source)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if c.missing != domain.MissingOutputEmpty {
				return out, &domain.MissingOutputError{Sample: sample.ID, Path: m.Source}
			}
			if err := c.writeEmpty(sink, m.Target); err != nil {
				return out, err
			}
			co.Empty = true
			co.HasReads = c.counter != nil
			c.log.Warn("output.missing", "sample", sample.ID, "source", m.Source, "target", m.Target)
			out = append(out, co)
			continue
		case err != nil:
			return out, &domain.OpError{Op: "collector.open", Kind: domain.KindEnvironment, Path: m.Source, Err: err}
		}

		err = c.write(sink, m.Target, f)
		_ = f.Close()
		if err != nil {
			return out, err
		}

		if c.counter != nil {
			n, err := c.counter.CountReads(m.Source)
			if err != nil {
				c.log.Warn("output.count_failed", "sample", sample.ID, "source", m.Source, "error", err.Error())
			} else {
				co.Reads = n
				co.HasReads = true
			}
		}

		c.log.Debug("output.collected", "sample", sample.ID, "target", m.Target, "reads", co.Reads)
		out = append(out, co)
	}
	return out, nil
}

func (c *Collector) write(sink ports.OutputSink, name string, src io.Reader) error {
	if !c.compress {
		return sink.Write(name, src)
	}

	pr, pw := io.Pipe()
	go func() {
		_, err := gzipio.Compress(pw, src)
		pw.CloseWithError(err)
	}()
	err := sink.Write(name, pr)
	// Unblock the compressor if the sink gave up early.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	return err
}

// writeEmpty stores a valid gzip stream with no content: zero reads.
func (c *Collector) writeEmpty(sink ports.OutputSink, name string) error {
	if !c.compress {
		return sink.Write(name, bytes.NewReader(nil))
	}
	var buf bytes.Buffer
	if _, err := gzipio.Compress(&buf, bytes.NewReader(nil)); err != nil {
		return &domain.OpError{Op: "collector.compress", Kind: domain.KindEnvironment, Path: name, Err: err}
	}
	return sink.Write(name, &buf)
}

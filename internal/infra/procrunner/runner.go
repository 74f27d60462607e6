// Package procrunner runs external tools as child processes.
package procrunner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

const defaultWaitDelay = 5 * time.Second

type Runner struct {
	stdout    io.Writer
	stderr    io.Writer
	timeout   time.Duration
	waitDelay time.Duration
	env       []string
	log       *slog.Logger
}

type Option func(*Runner)

// WithOutput sets where the child's stdout and stderr go. Nil discards.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithTimeout bounds every single command. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithWaitDelay bounds how long Run waits for the child's output pipes after
// the process has been killed.
func WithWaitDelay(d time.Duration) Option {
	return func(r *Runner) { r.waitDelay = d }
}

// WithEnv appends KEY=VALUE entries to the inherited environment.
func WithEnv(kv ...string) Option {
	return func(r *Runner) { r.env = append(r.env, kv...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func New(opts ...Option) *Runner {
	r := &Runner{
		stdout:    os.Stderr,
		stderr:    os.Stderr,
		waitDelay: defaultWaitDelay,
		log:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.CommandRunner = (*Runner)(nil)

// Run starts cmd and waits for it. The tool's own output is forwarded, never
// captured. Any failure, including a kill after cancellation or timeout, is
// returned as *domain.ToolInvocationError.
func (r *Runner) Run(ctx context.Context, cmd domain.Command) error {
	if err := ctx.Err(); err != nil {
		return toolError(cmd, -1, err)
	}

	runCtx := ctx
	cancel := func() {}
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Stdout = r.stdout
	c.Stderr = r.stderr
	if len(r.env) > 0 {
		c.Env = append(os.Environ(), r.env...)
	}
	c.WaitDelay = r.waitDelay
	configureKill(c)

	r.log.Debug("tool.start", "tool", cmd.Name, "cmd", cmd.String())

	start := time.Now()
	err := c.Run()
	dur := time.Since(start)

	if err == nil {
		r.log.Info("tool.exit", "tool", cmd.Name, "exit_code", 0, "duration_ms", dur.Milliseconds())
		return nil
	}

	code := -1
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.Exited() {
		code = ee.ExitCode()
	}

	// Report the context error when the process was killed on our behalf.
	if cerr := runCtx.Err(); cerr != nil {
		err = cerr
		code = -1
	}

	r.log.Info("tool.exit",
		"tool", cmd.Name,
		"exit_code", code,
		"duration_ms", dur.Milliseconds(),
		"error", err.Error(),
	)
	return toolError(cmd, code, err)
}

func toolError(cmd domain.Command, code int, err error) *domain.ToolInvocationError {
	line := cmd.String()
	return &domain.ToolInvocationError{
		Command:  line,
		Template: line,
		ExitCode: code,
		Err:      err,
	}
}

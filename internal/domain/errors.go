package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for broad classification.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidConfig  = errors.New("invalid config")
	ErrDecode         = errors.New("decode error")
	ErrEnvironment    = errors.New("environment error")
	ErrToolInvocation = errors.New("tool invocation failed")
	ErrMissingOutput  = errors.New("missing tool output")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindNotFound       ErrorKind = "not_found"
	KindInvalidConfig  ErrorKind = "invalid_config"
	KindDecode         ErrorKind = "decode"
	KindEnvironment    ErrorKind = "environment"
	KindToolInvocation ErrorKind = "tool_invocation"
	KindMissingOutput  ErrorKind = "missing_output"
	KindCanceled       ErrorKind = "canceled"
)

var kindSentinels = map[ErrorKind]error{
	KindNotFound:       ErrNotFound,
	KindInvalidConfig:  ErrInvalidConfig,
	KindDecode:         ErrDecode,
	KindEnvironment:    ErrEnvironment,
	KindToolInvocation: ErrToolInvocation,
	KindMissingOutput:  ErrMissingOutput,
}

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant file path
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrDecode) and friends match on Kind.
func (e *OpError) Is(target error) bool {
	if e == nil {
		return false
	}
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// ToolInvocationError reports a failed external tool run: a launch failure,
// a non-zero exit or a kill after timeout/cancellation.
//
// The command line refers to scratch paths that are usually gone by the time
// the error is inspected; Template holds a version with stable placeholders.
type ToolInvocationError struct {
	Sample   string
	Command  string
	Template string
	ExitCode int // -1 when the process never exited normally
	Err      error
}

func (e *ToolInvocationError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteString("tool invocation failed")
	if e.Sample != "" {
		fmt.Fprintf(&b, " (sample=%s)", e.Sample)
	}
	fmt.Fprintf(&b, ": exit code %d: %s", e.ExitCode, e.Command)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ToolInvocationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ToolInvocationError) Is(target error) bool { return target == ErrToolInvocation }

// MissingOutputError reports that a tool exited cleanly but did not write a
// file it is expected to produce.
type MissingOutputError struct {
	Sample string
	Path   string
}

func (e *MissingOutputError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Sample == "" {
		return fmt.Sprintf("missing tool output: %s", e.Path)
	}
	return fmt.Sprintf("missing tool output (sample=%s): %s", e.Sample, e.Path)
}

func (e *MissingOutputError) Is(target error) bool { return target == ErrMissingOutput }

// SampleError attaches the sample identity to any failure raised while
// processing it.
type SampleError struct {
	Sample string
	Err    error
}

func (e *SampleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("sample %s: %v", e.Sample, e.Err)
}

func (e *SampleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BatchError is returned when the batch ran to completion with per-sample
// failures (on_error: continue).
type BatchError struct {
	Failed []*SampleError
}

func (e *BatchError) Error() string {
	if e == nil || len(e.Failed) == 0 {
		return "batch failed"
	}
	ids := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, f.Sample)
	}
	return fmt.Sprintf("%d sample(s) failed: %s", len(e.Failed), strings.Join(ids, ", "))
}

func (e *BatchError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		out = append(out, f)
	}
	return out
}

// IsKind helps callers classify errors without depending on infra packages.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) && oe.Kind == kind {
		return true
	}
	if s, ok := kindSentinels[kind]; ok {
		return errors.Is(err, s)
	}
	return false
}

// KindOf returns the most specific kind found in the error chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var tie *ToolInvocationError
	if errors.As(err, &tie) {
		return KindToolInvocation
	}
	var moe *MissingOutputError
	if errors.As(err, &moe) {
		return KindMissingOutput
	}
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return ""
}

func asToolError(err error) *ToolInvocationError {
	var tie *ToolInvocationError
	if errors.As(err, &tie) {
		return tie
	}
	return nil
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestOpErrorWrapUnwrap(t *testing.T) {
	root := errors.New("root")
	err := &OpError{Op: "staging.decompress", Kind: KindDecode, Path: "a.fastq.gz", Err: root}

	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is to match cause")
	}
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected errors.Is to match ErrDecode through Kind")
	}
	if errors.Is(err, ErrEnvironment) {
		t.Fatalf("expected decode error not to match ErrEnvironment")
	}

	var got *OpError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &got) {
		t.Fatalf("expected errors.As to match OpError")
	}
	if got.Kind != KindDecode {
		t.Fatalf("expected kind %s, got %s", KindDecode, got.Kind)
	}
}

func TestIsKind(t *testing.T) {
	err := &OpError{Op: "x", Kind: KindInvalidConfig}
	if !IsKind(err, KindInvalidConfig) {
		t.Fatalf("expected IsKind to match op error")
	}

	tie := &ToolInvocationError{Command: "false", ExitCode: 1}
	if !IsKind(fmt.Errorf("run: %w", tie), KindToolInvocation) {
		t.Fatalf("expected IsKind to match tool invocation error")
	}
	if IsKind(tie, KindMissingOutput) {
		t.Fatalf("expected tool error not to be a missing output error")
	}
}

func TestToolInvocationError_Message(t *testing.T) {
	err := &ToolInvocationError{Sample: "s1", Command: "prinseq-lite.pl -fastq x", ExitCode: 2}
	want := "tool invocation failed (sample=s1): exit code 2: prinseq-lite.pl -fastq x"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, ErrToolInvocation) {
		t.Fatalf("expected errors.Is(ErrToolInvocation)")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"tool", &ToolInvocationError{ExitCode: 1}, KindToolInvocation},
		{"missing", &MissingOutputError{Path: "outfile.fastq"}, KindMissingOutput},
		{"op", &OpError{Kind: KindEnvironment}, KindEnvironment},
		{"sample wrap", &SampleError{Sample: "s", Err: &OpError{Kind: KindDecode}}, KindDecode},
		{"canceled", fmt.Errorf("stage: %w", context.Canceled), KindCanceled},
		{"plain", errors.New("boom"), ""},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Errorf("%s: expected %q, got %q", c.name, c.want, got)
		}
	}
}

func TestBatchError_UnwrapsEverySample(t *testing.T) {
	missing := &MissingOutputError{Sample: "b", Path: "outfile.fastq"}
	err := &BatchError{Failed: []*SampleError{
		{Sample: "a", Err: &ToolInvocationError{Sample: "a", ExitCode: 3}},
		{Sample: "b", Err: missing},
	}}

	if !errors.Is(err, ErrToolInvocation) {
		t.Fatalf("expected batch error to match ErrToolInvocation")
	}
	if !errors.Is(err, ErrMissingOutput) {
		t.Fatalf("expected batch error to match ErrMissingOutput")
	}
	if err.Error() != "2 sample(s) failed: a, b" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNewRunError_KeepsExitCode(t *testing.T) {
	re := NewRunError(&SampleError{Sample: "s", Err: &ToolInvocationError{ExitCode: 7}})
	if re.Kind != KindToolInvocation {
		t.Fatalf("expected kind %s, got %s", KindToolInvocation, re.Kind)
	}
	if re.ExitCode == nil || *re.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %v", re.ExitCode)
	}
	if NewRunError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if got := NewRunError(errors.New("x")).Kind; got != "unknown" {
		t.Fatalf("expected unknown kind, got %s", got)
	}
}

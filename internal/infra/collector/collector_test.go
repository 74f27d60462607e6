package collector

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/gzipio"
)

type memSink struct {
	mu    sync.Mutex
	files  map[string][]byte
	err    error
	failOn string
}

func newMemSink() *memSink { return &memSink{files: map[string][]byte{}} }

func (m *memSink) Write(name string, r io.Reader) error {
	if m.err != nil && (m.failOn == "" || m.failOn == name) {
		_, _ = io.Copy(io.Discard, r)
		return m.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.files[name] = b
	m.mu.Unlock()
	return nil
}

type fixedCounter struct{ n int64 }

func (f fixedCounter) CountReads(string) (int64, error) { return f.n, nil }

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	zr, err := gzipio.NewReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("gunzip: %v", err)
	}
	return string(out)
}

func TestCollect_ReportsWrittenOutputsOnFailure(t *testing.T) {
	ws := t.TempDir()
	src1 := filepath.Join(ws, "outfile_1.fastq")
	src2 := filepath.Join(ws, "outfile_2.fastq")
	os.WriteFile(src1, []byte("@a\nA\n+\nI\n"), 0o644)
	os.WriteFile(src2, []byte("@a\nT\n+\nI\n"), 0o644)

	plan := domain.ToolPlan{Outputs: []domain.OutputMapping{
		{Source: src1, Target: "s_R1.fastq.gz", Role: domain.RoleForward},
		{Source: src2, Target: "s_R2.fastq.gz", Role: domain.RoleReverse},
	}}

	sink := newMemSink()
	sink.err = errors.New("disk full")
	sink.failOn = "s_R2.fastq.gz"

	got, err := New().Collect(context.Background(), domain.Sample{ID: "s"}, plan, sink)
	if err == nil {
		t.Fatalf("expected write error")
	}
	if len(got) != 1 || got[0].Name != "s_R1.fastq.gz" {
		t.Fatalf("expected only the forward file reported as written, got %+v", got)
	}
}

func TestCollect_CompressesUnderTargetNames(t *testing.T) {
	ws := t.TempDir()
	src1 := filepath.Join(ws, "outfile_1.fastq")
	src2 := filepath.Join(ws, "outfile_2.fastq")
	os.WriteFile(src1, []byte("@a\nA\n+\nI\n"), 0o644)
	os.WriteFile(src2, []byte("@a\nT\n+\nI\n"), 0o644)

	plan := domain.ToolPlan{Outputs: []domain.OutputMapping{
		{Source: src1, Target: "s_R1.fastq.gz", Role: domain.RoleForward},
		{Source: src2, Target: "s_R2.fastq.gz", Role: domain.RoleReverse},
	}}

	sink := newMemSink()
	got, err := New(WithReadCounter(fixedCounter{n: 1})).Collect(context.Background(), domain.Sample{ID: "s"}, plan, sink)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	if len(got) != 2 || got[0].Name != "s_R1.fastq.gz" || got[1].Role != domain.RoleReverse {
		t.Fatalf("unexpected collected outputs %+v", got)
	}
	if !got[0].HasReads || got[0].Reads != 1 {
		t.Fatalf("expected read count recorded, got %+v", got[0])
	}
	if s := gunzip(t, sink.files["s_R1.fastq.gz"]); s != "@a\nA\n+\nI\n" {
		t.Fatalf("forward content mismatch %q", s)
	}
	if s := gunzip(t, sink.files["s_R2.fastq.gz"]); s != "@a\nT\n+\nI\n" {
		t.Fatalf("reverse content mismatch %q", s)
	}
}

func TestCollect_MissingOutputIsErrorByDefault(t *testing.T) {
	plan := domain.ToolPlan{Outputs: []domain.OutputMapping{
		{Source: filepath.Join(t.TempDir(), "outfile.fastq"), Target: "s.fastq.gz", Role: domain.RoleForward},
	}}

	sink := newMemSink()
	_, err := New().Collect(context.Background(), domain.Sample{ID: "s"}, plan, sink)

	var moe *domain.MissingOutputError
	if !errors.As(err, &moe) {
		t.Fatalf("expected MissingOutputError, got %v", err)
	}
	if moe.Sample != "s" {
		t.Fatalf("expected sample id in error, got %q", moe.Sample)
	}
	if len(sink.files) != 0 {
		t.Fatalf("expected nothing written, got %d files", len(sink.files))
	}
}

func TestCollect_MissingOutputEmptyPolicy(t *testing.T) {
	plan := domain.ToolPlan{Outputs: []domain.OutputMapping{
		{Source: filepath.Join(t.TempDir(), "outfile.fastq"), Target: "s.fastq.gz", Role: domain.RoleForward},
	}}

	sink := newMemSink()
	got, err := New(WithMissingOutput(domain.MissingOutputEmpty)).Collect(context.Background(), domain.Sample{ID: "s"}, plan, sink)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(got) != 1 || !got[0].Empty {
		t.Fatalf("expected one empty output, got %+v", got)
	}
	if s := gunzip(t, sink.files["s.fastq.gz"]); s != "" {
		t.Fatalf("expected empty content, got %q", s)
	}
}

func TestCollect_RawCopy(t *testing.T) {
	src := filepath.Join(t.TempDir(), "db.1.bt2")
	os.WriteFile(src, []byte("index"), 0o644)

	plan := domain.ToolPlan{Outputs: []domain.OutputMapping{{Source: src, Target: "db.1.bt2", Role: domain.RoleIndex}}}
	sink := newMemSink()
	if _, err := New(WithRawCopy()).Collect(context.Background(), domain.Sample{ID: "db"}, plan, sink); err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if string(sink.files["db.1.bt2"]) != "index" {
		t.Fatalf("expected raw copy, got %q", sink.files["db.1.bt2"])
	}
}

func TestCollect_SinkFailure(t *testing.T) {
	src := filepath.Join(t.TempDir(), "outfile.fastq")
	os.WriteFile(src, bytes.Repeat([]byte("@a\nA\n+\nI\n"), 10000), 0o644)

	boom := errors.New("disk full")
	sink := newMemSink()
	sink.err = boom

	plan := domain.ToolPlan{Outputs: []domain.OutputMapping{{Source: src, Target: "s.fastq.gz", Role: domain.RoleForward}}}
	_, err := New().Collect(context.Background(), domain.Sample{ID: "s"}, plan, sink)
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestCollect_Deterministic(t *testing.T) {
	src := filepath.Join(t.TempDir(), "outfile.fastq")
	os.WriteFile(src, []byte("@a\nACGT\n+\nIIII\n"), 0o644)
	plan := domain.ToolPlan{Outputs: []domain.OutputMapping{{Source: src, Target: "s.fastq.gz", Role: domain.RoleForward}}}

	a, b := newMemSink(), newMemSink()
	if _, err := New().Collect(context.Background(), domain.Sample{ID: "s"}, plan, a); err != nil {
		t.Fatal(err)
	}
	if _, err := New().Collect(context.Background(), domain.Sample{ID: "s"}, plan, b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.files["s.fastq.gz"], b.files["s.fastq.gz"]) {
		t.Fatalf("expected byte-identical outputs across runs")
	}
}

func TestCollect_PairWithOneMissingWritesNothing(t *testing.T) {
	ws := t.TempDir()
	src1 := filepath.Join(ws, "outfile_1.fastq")
	os.WriteFile(src1, []byte("@a\nA\n+\nI\n"), 0o644)

	plan := domain.ToolPlan{Outputs: []domain.OutputMapping{
		{Source: src1, Target: "s_R1.fastq.gz", Role: domain.RoleForward},
		{Source: filepath.Join(ws, "outfile_2.fastq"), Target: "s_R2.fastq.gz", Role: domain.RoleReverse},
	}}

	sink := newMemSink()
	_, err := New().Collect(context.Background(), domain.Sample{ID: "s"}, plan, sink)
	if !errors.Is(err, domain.ErrMissingOutput) {
		t.Fatalf("expected ErrMissingOutput, got %v", err)
	}
	if len(sink.files) != 0 {
		t.Fatalf("expected no partial sample in sink, got %d files", len(sink.files))
	}
}

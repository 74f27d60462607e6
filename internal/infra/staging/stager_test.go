package staging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/infra/gzipio"
)

const fwdFastq = "@r1/1\nACGTACGT\n+\nIIIIIIII\n"
const revFastq = "@r1/2\nTTGGCCAA\n+\nHHHHHHHH\n"

func writeGz(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	if _, err := gzipio.Compress(&buf, strings.NewReader(content)); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestStage_PairedDecompressesIntoFreshWorkspace(t *testing.T) {
	in := t.TempDir()
	scratch := t.TempDir()
	fwd := filepath.Join(in, "s1_R1_001.fastq.gz")
	rev := filepath.Join(in, "s1_R2_001.fastq.gz")
	writeGz(t, fwd, fwdFastq)
	writeGz(t, rev, revFastq)

	s := New(WithTempDir(scratch))
	ws, err := s.Stage(context.Background(), domain.Sample{ID: "s1", Forward: fwd, Reverse: rev}, true)
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}

	if filepath.Dir(ws.Dir) != scratch {
		t.Fatalf("expected workspace under %s, got %s", scratch, ws.Dir)
	}
	if !strings.HasPrefix(filepath.Base(ws.Dir), DefaultPrefix) {
		t.Fatalf("expected prefix %q, got %s", DefaultPrefix, filepath.Base(ws.Dir))
	}
	if ws.Forward != filepath.Join(ws.Dir, "s1_R1_001.fastq.gz.fastq") {
		t.Fatalf("unexpected forward path %s", ws.Forward)
	}
	if ws.Reverse != filepath.Join(ws.Dir, "s1_R2_001.fastq.gz.fastq") {
		t.Fatalf("unexpected reverse path %s", ws.Reverse)
	}

	got, _ := os.ReadFile(ws.Forward)
	if string(got) != fwdFastq {
		t.Fatalf("forward content mismatch: %q", got)
	}
	got, _ = os.ReadFile(ws.Reverse)
	if string(got) != revFastq {
		t.Fatalf("reverse content mismatch: %q", got)
	}
	if ws.StagedBytes != int64(len(fwdFastq)+len(revFastq)) {
		t.Fatalf("unexpected staged bytes %d", ws.StagedBytes)
	}

	if err := s.Release(ws); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatalf("expected workspace removed, stat err=%v", err)
	}
}

func TestStage_WithoutDecompressionKeepsOriginals(t *testing.T) {
	in := t.TempDir()
	fwd := filepath.Join(in, "s1.fastq.gz")
	writeGz(t, fwd, fwdFastq)

	s := New(WithTempDir(t.TempDir()))
	ws, err := s.Stage(context.Background(), domain.Sample{ID: "s1", Forward: fwd}, false)
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	defer s.Release(ws)

	if ws.Forward != fwd || ws.Reverse != "" {
		t.Fatalf("expected original paths, got %+v", ws)
	}
	if n := len(listDir(t, ws.Dir)); n != 0 {
		t.Fatalf("expected empty workspace, got %d entries", n)
	}
}

func TestStage_DecodeErrorLeavesNothingBehind(t *testing.T) {
	in := t.TempDir()
	scratch := t.TempDir()
	fwd := filepath.Join(in, "good.fastq.gz")
	rev := filepath.Join(in, "bad.fastq.gz")
	writeGz(t, fwd, fwdFastq)
	if err := os.WriteFile(rev, []byte("not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(WithTempDir(scratch))
	_, err := s.Stage(context.Background(), domain.Sample{ID: "s1", Forward: fwd, Reverse: rev}, true)
	if !errors.Is(err, domain.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if left := listDir(t, scratch); len(left) != 0 {
		t.Fatalf("expected scratch area empty, found %v", left)
	}
}

func TestStage_UnwritableTempArea(t *testing.T) {
	s := New(WithTempDir(filepath.Join(t.TempDir(), "does", "not", "exist")))
	_, err := s.Stage(context.Background(), domain.Sample{ID: "s1", Forward: "x.gz"}, true)
	if !domain.IsKind(err, domain.KindEnvironment) {
		t.Fatalf("expected KindEnvironment, got %v", err)
	}
}

func TestStage_RefusesWhenTempAreaTooSmall(t *testing.T) {
	scratch := t.TempDir()
	s := New(
		WithTempDir(scratch),
		WithMinFreeSpace(1<<30),
		WithFreeSpaceFunc(func(string) (uint64, error) { return 1 << 20, nil }),
	)
	_, err := s.Stage(context.Background(), domain.Sample{ID: "s1", Forward: "x.gz"}, true)
	if !domain.IsKind(err, domain.KindEnvironment) {
		t.Fatalf("expected KindEnvironment, got %v", err)
	}
	if !strings.Contains(err.Error(), "free") {
		t.Fatalf("expected free-space message, got %v", err)
	}
	if left := listDir(t, scratch); len(left) != 0 {
		t.Fatalf("expected no workspace created, found %v", left)
	}
}

func TestStage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(WithTempDir(t.TempDir()))
	_, err := s.Stage(ctx, domain.Sample{ID: "s1", Forward: "x.gz"}, true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRelease_EmptyWorkspaceIsNoop(t *testing.T) {
	if err := New().Release(domain.Workspace{}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

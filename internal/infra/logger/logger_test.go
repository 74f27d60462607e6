package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetup_WritesJSONLines(t *testing.T) {
	root := t.TempDir()
	var mirror bytes.Buffer

	cleanup, err := Setup(Config{Root: root, Mirror: &mirror})
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}

	L().Info("run.saved", "id", "abc")
	L().Debug("tool.start", "cmd", "x")

	want := filepath.Join(root, ".readprep", "logs", "readprep.log")
	if Path() != want {
		t.Fatalf("expected path %s, got %s", want, Path())
	}

	if err := cleanup(); err != nil {
		t.Fatalf("cleanup error: %v", err)
	}

	b, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected init + info lines only (debug filtered), got %d:\n%s", len(lines), b)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("expected JSON line: %v", err)
	}
	if rec["msg"] != "run.saved" || rec["id"] != "abc" || rec["pid"] == nil {
		t.Fatalf("unexpected record %v", rec)
	}
	if !strings.Contains(mirror.String(), "run.saved") {
		t.Fatalf("expected mirror to receive lines, got %q", mirror.String())
	}

	if Path() != "" {
		t.Fatalf("expected logger reset after cleanup")
	}
}

func TestSetup_RotatesOversizedLog(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".readprep", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	old := filepath.Join(dir, "readprep.log")
	if err := os.WriteFile(old, bytes.Repeat([]byte("x"), 2048), 0o600); err != nil {
		t.Fatal(err)
	}

	cleanup, err := Setup(Config{Root: root, MaxSize: "1K"})
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	defer cleanup()

	if fi, err := os.Stat(old + ".1"); err != nil || fi.Size() != 2048 {
		t.Fatalf("expected previous log kept as readprep.log.1, got %v", err)
	}
	if fi, err := os.Stat(old); err != nil || fi.Size() >= 2048 {
		t.Fatalf("expected a fresh readprep.log, got %v", err)
	}
}

func TestSetup_BadMaxSize(t *testing.T) {
	if _, err := Setup(Config{Root: t.TempDir(), MaxSize: "lots"}); err == nil {
		t.Fatalf("expected error for bad max size")
	}
	if Path() != "" {
		t.Fatalf("expected discard logger after failed setup")
	}
}

func TestToolOutput_CreatesPerRunFile(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	f, err := ToolOutput(root, "trim", now)
	if err != nil {
		t.Fatalf("ToolOutput error: %v", err)
	}
	if _, err := f.WriteString("prinseq says hi\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(root, ".readprep", "logs", "tools", "trim-20240506T070809.000Z.log")
	if f.Name() != want {
		t.Fatalf("expected %s, got %s", want, f.Name())
	}
	if b, _ := os.ReadFile(want); string(b) != "prinseq says hi\n" {
		t.Fatalf("unexpected content %q", b)
	}
}

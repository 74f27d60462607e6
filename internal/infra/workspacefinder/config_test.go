package workspacefinder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aalvaropc/readprep/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "readprep.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return root
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	root := writeConfig(t, "readprep:\n  execution:\n    workers: 4\n")

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Execution.Workers != 4 {
		t.Fatalf("expected workers=4, got=%d", cfg.Execution.Workers)
	}
	if cfg.Defaults.Params != "default" {
		t.Fatalf("expected default params=default, got=%s", cfg.Defaults.Params)
	}
	if cfg.Paths.ManifestsDir != "manifests" || cfg.Paths.ParamsDir != "params" || cfg.Paths.RunsDir != "runs" {
		t.Fatalf("expected default paths, got=%+v", cfg.Paths)
	}
	if cfg.Tools.Prinseq != "prinseq-lite.pl" {
		t.Fatalf("expected default prinseq tool, got=%s", cfg.Tools.Prinseq)
	}
	if cfg.Execution.OnError != domain.OnErrorAbort || cfg.Execution.MissingOutput != domain.MissingOutputFail {
		t.Fatalf("expected default policies, got=%+v", cfg.Execution)
	}
	if !cfg.Execution.Stats {
		t.Fatalf("expected stats enabled by default")
	}
}

func TestLoadConfig_FullOverlay(t *testing.T) {
	root := writeConfig(t, `
readprep:
  defaults:
    params: strict
  paths:
    runs_dir: reports
  tools:
    prinseq: /opt/prinseq/prinseq-lite.pl
    samtools: /opt/samtools
  execution:
    timeout: 90m
    on_error: continue
    missing_output: empty
    temp_dir: /scratch
    min_free_space: 2G
    stats: false
  trim:
    expand_derep: true
`)

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Defaults.Params != "strict" || cfg.Paths.RunsDir != "reports" {
		t.Fatalf("unexpected defaults/paths: %+v %+v", cfg.Defaults, cfg.Paths)
	}
	if cfg.Tools.Prinseq != "/opt/prinseq/prinseq-lite.pl" || cfg.Tools.Samtools != "/opt/samtools" || cfg.Tools.Bowtie2 != "bowtie2" {
		t.Fatalf("unexpected tools: %+v", cfg.Tools)
	}
	if cfg.Execution.Timeout != 90*time.Minute {
		t.Fatalf("expected 90m timeout, got %s", cfg.Execution.Timeout)
	}
	if cfg.Execution.OnError != domain.OnErrorContinue || cfg.Execution.MissingOutput != domain.MissingOutputEmpty {
		t.Fatalf("unexpected policies: %+v", cfg.Execution)
	}
	if cfg.Execution.TempDir != "/scratch" || cfg.Execution.MinFreeSpace != 2<<30 {
		t.Fatalf("unexpected temp settings: %+v", cfg.Execution)
	}
	if cfg.Execution.Stats || !cfg.Trim.ExpandDerep {
		t.Fatalf("unexpected toggles: stats=%v expand=%v", cfg.Execution.Stats, cfg.Trim.ExpandDerep)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad yaml", "readprep: [\n"},
		{"zero workers", "readprep:\n  execution:\n    workers: 0\n"},
		{"bad timeout", "readprep:\n  execution:\n    timeout: soon\n"},
		{"bad policy", "readprep:\n  execution:\n    on_error: retry\n"},
		{"bad missing policy", "readprep:\n  execution:\n    missing_output: ignore\n"},
		{"bad size", "readprep:\n  execution:\n    min_free_space: lots\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			if !domain.IsKind(err, domain.KindInvalidConfig) {
				t.Fatalf("expected KindInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

package runstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aalvaropc/readprep/internal/domain"
)

func sampleRun(start time.Time) domain.RunArtifact {
	code := 2
	return domain.RunArtifact{
		Pipeline:     domain.PipelineTrim,
		ManifestPath: "manifests/Gut Study.yaml",
		OutputDir:    "out",
		Profile:      "default",
		Status:       domain.RunPartial,
		StartedAt:    start,
		FinishedAt:   start.Add(3 * time.Second),
		Samples: []domain.SampleResult{
			{
				SampleID:   "s1",
				Layout:     domain.LayoutSingle,
				Inputs:     []string{"reads/s1.fastq.gz"},
				Status:     domain.SampleSucceeded,
				Commands:   []string{"prinseq-lite.pl -fastq {{workspace}}/s1.fastq.gz.fastq"},
				Outputs:    []domain.CollectedOutput{{Name: "s1.fastq.gz", Role: domain.RoleForward, Reads: 7, HasReads: true}},
				ReadsIn:    10,
				HasReadsIn: true,
			},
			{
				SampleID: "s2",
				Layout:   domain.LayoutSingle,
				Status:   domain.SampleFailed,
				Error:    &domain.RunError{Kind: domain.KindToolInvocation, Message: "boom", ExitCode: &code},
			},
		},
	}
}

func TestSaveRun_CreatesJSONFileAndIndex(t *testing.T) {
	tmp := t.TempDir()

	store := NewJSONStore(tmp, domain.DefaultConfig(), WithIDFunc(func() string { return "0123456789abcdef" }))

	start := time.Date(2026, 2, 3, 10, 11, 12, 0, time.UTC)
	id, err := store.SaveRun(sampleRun(start))
	if err != nil {
		t.Fatalf("SaveRun error: %v", err)
	}
	if id != "0123456789abcdef" {
		t.Fatalf("expected generated id, got %s", id)
	}

	wantFile := filepath.Join(tmp, "runs", "20260203T101112Z_trim_gut-study_01234567.json")
	b, err := os.ReadFile(wantFile)
	if err != nil {
		t.Fatalf("expected file at %s: %v", wantFile, err)
	}

	var decoded RunDTO
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != id || decoded.Status != "partial" || len(decoded.Samples) != 2 {
		t.Fatalf("unexpected report: %+v", decoded)
	}
	s1 := decoded.Samples[0]
	if s1.ReadsIn == nil || *s1.ReadsIn != 10 || s1.Outputs[0].Reads == nil || *s1.Outputs[0].Reads != 7 {
		t.Fatalf("expected read counts stored, got %+v", s1)
	}
	s2 := decoded.Samples[1]
	if s2.Error == nil || s2.Error.Kind != "tool_invocation" || s2.Error.ExitCode == nil || *s2.Error.ExitCode != 2 {
		t.Fatalf("expected error stored, got %+v", s2.Error)
	}
	if s2.ReadsIn != nil {
		t.Fatalf("expected reads_in omitted when not counted")
	}

	refs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns error: %v", err)
	}
	if len(refs) != 1 || refs[0].ID != id || refs[0].Samples != 2 || refs[0].Pipeline != domain.PipelineTrim {
		t.Fatalf("unexpected refs %+v", refs)
	}
}

func TestListRuns_NewestFirstAndEmpty(t *testing.T) {
	tmp := t.TempDir()
	ids := []string{"aaaa1111", "bbbb2222"}
	n := 0
	store := NewJSONStore(tmp, domain.DefaultConfig(), WithIDFunc(func() string { n++; return ids[n-1] }))

	refs, err := store.ListRuns()
	if err != nil || len(refs) != 0 {
		t.Fatalf("expected no runs, got %v, %v", refs, err)
	}

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.SaveRun(sampleRun(t0)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveRun(sampleRun(t0.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	refs, err = store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns error: %v", err)
	}
	if len(refs) != 2 || refs[0].ID != "bbbb2222" {
		t.Fatalf("expected newest first, got %+v", refs)
	}
}

func TestLoadRunJSON_ByPrefix(t *testing.T) {
	tmp := t.TempDir()
	ids := []string{"abc-1", "abd-2"}
	n := 0
	store := NewJSONStore(tmp, domain.DefaultConfig(), WithIDFunc(func() string { n++; return ids[n-1] }))

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.SaveRun(sampleRun(start))
	store.SaveRun(sampleRun(start.Add(time.Second)))

	b, err := store.LoadRunJSON("abd")
	if err != nil {
		t.Fatalf("LoadRunJSON error: %v", err)
	}
	var d RunDTO
	if err := json.Unmarshal(b, &d); err != nil || d.ID != "abd-2" {
		t.Fatalf("expected run abd-2, got %q (%v)", d.ID, err)
	}

	if _, err := store.LoadRunJSON("ab"); !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected ambiguous prefix error, got %v", err)
	}
	if _, err := store.LoadRunJSON("zzz"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Gut Study":    "gut-study",
		"  a__b..c  ":  "a-b-c",
		"--x--":        "x",
		"":             "",
		"Ünïcode 2026": "n-code-2026",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q): expected %q, got %q", in, want, got)
		}
	}
}

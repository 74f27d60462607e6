package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aalvaropc/readprep/internal/domain"
	"github.com/aalvaropc/readprep/internal/ports"
)

// resolvingTool declares no outputs up front and discovers them after the
// command ran, like an index builder.
type resolvingTool struct {
	fakeTool
	resolved bool
}

func (t *resolvingTool) Pipeline() domain.Pipeline { return domain.PipelineIndex }

func (t *resolvingTool) Plan(ws domain.Workspace, s domain.Sample) (domain.ToolPlan, error) {
	return domain.ToolPlan{
		Commands: []domain.Command{{Name: "builder", Args: []string{s.Forward, filepath.Join(ws.Dir, s.ID), s.ID}}},
	}, nil
}

func (t *resolvingTool) ResolveOutputs(ws domain.Workspace, s domain.Sample, plan domain.ToolPlan) (domain.ToolPlan, error) {
	t.resolved = true
	for _, ext := range []string{".1.bt2", ".2.bt2"} {
		plan.Outputs = append(plan.Outputs, domain.OutputMapping{
			Source: filepath.Join(ws.Dir, s.ID+ext),
			Target: s.ID + ext,
			Role:   domain.RoleIndex,
		})
	}
	return plan, nil
}

var _ ports.OutputResolver = (*resolvingTool)(nil)

func TestBuildIndex_RejectsBadNames(t *testing.T) {
	rr := &fakeRunner{}
	uc := NewBuildIndex(NewProcessSamples(&resolvingTool{}, &fakeStager{}, rr, fakeCollector{}))

	for _, name := range []string{"", "  ", "a/b", ".hidden", "../up"} {
		_, _, err := uc.Execute(context.Background(), "ref.fa", name, newMemSink())
		if !domain.IsKind(err, domain.KindInvalidConfig) {
			t.Fatalf("%q: expected KindInvalidConfig, got %v", name, err)
		}
	}
	if len(rr.called()) != 0 {
		t.Fatalf("expected no tool runs, got %v", rr.called())
	}
}

func TestBuildIndex_ResolvesOutputs(t *testing.T) {
	tool := &resolvingTool{}
	sink := newMemSink()
	uc := NewBuildIndex(NewProcessSamples(tool, &fakeStager{}, &fakeRunner{}, fakeCollector{}))

	run, _, err := uc.Execute(context.Background(), "refs/phix.fa", "phix", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tool.resolved {
		t.Fatalf("expected outputs to be resolved after the run")
	}
	if run.Pipeline != domain.PipelineIndex || run.ManifestPath != "refs/phix.fa" {
		t.Fatalf("unexpected run header: %+v", run)
	}
	if len(run.Samples) != 1 || run.Samples[0].SampleID != "phix" {
		t.Fatalf("expected a single phix sample, got %+v", run.Samples)
	}
	if len(sink.files) != 2 || sink.files["phix.1.bt2"] == "" {
		t.Fatalf("unexpected index files: %v", sink.files)
	}
	if got := run.Samples[0].Commands[0]; got != "builder refs/phix.fa {{workspace}}/phix phix" {
		t.Fatalf("unexpected template %q", got)
	}
}

package bowtie2

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/aalvaropc/readprep/internal/domain"
)

func TestPresetFlag(t *testing.T) {
	cases := []struct {
		mode domain.AlignMode
		sens domain.Sensitivity
		want string
	}{
		{domain.AlignLocal, domain.SensSensitive, "--sensitive-local"},
		{domain.AlignLocal, domain.SensVeryFast, "--very-fast-local"},
		{domain.AlignGlobal, domain.SensVerySensitive, "--very-sensitive"},
		{domain.AlignGlobal, domain.SensFast, "--fast"},
	}
	for _, tc := range cases {
		if got := PresetFlag(tc.mode, tc.sens); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestFilterPlan_SingleExclude(t *testing.T) {
	ws := domain.Workspace{Dir: "/ws", Forward: "/data/s1.fastq.gz"}
	sample := domain.Sample{ID: "s1", Forward: "/data/s1.fastq.gz"}

	plan, err := NewFilter("/idx/host", domain.DefaultFilterParams()).Plan(ws, sample)
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}

	want := []string{
		"bowtie2 -p 1 --sensitive-local --rfg 5,3 -x /idx/host -U /data/s1.fastq.gz -S /ws/aligned.sam",
		"samtools view -b /ws/aligned.sam -o /ws/filtered.bam -f 4 -@ 0",
		"samtools fastq /ws/filtered.bam -n -0 /ws/filtered.fastq",
	}
	assertCommands(t, plan, want)

	if len(plan.Outputs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(plan.Outputs))
	}
	o := plan.Outputs[0]
	if o.Source != filepath.Join("/ws", "filtered.fastq") || o.Target != "s1.fastq.gz" || o.Role != domain.RoleForward {
		t.Fatalf("unexpected output %+v", o)
	}
}

func TestFilterPlan_PairedKeepAligned(t *testing.T) {
	p := domain.DefaultFilterParams()
	p.Threads = 4
	p.Mode = domain.AlignGlobal
	p.Sensitivity = domain.SensVerySensitive
	p.ExcludeSeqs = false

	ws := domain.Workspace{Dir: "/ws", Forward: "/d/a_R1.fq.gz", Reverse: "/d/a_R2.fq.gz"}
	sample := domain.Sample{ID: "a", Forward: "/d/a_R1.fq.gz", Reverse: "/d/a_R2.fq.gz"}

	plan, err := NewFilter("idx", p, WithBowtie2("/opt/bt2"), WithSamtools("/opt/st")).Plan(ws, sample)
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}

	want := []string{
		"/opt/bt2 -p 4 --very-sensitive --rfg 5,3 -x idx -1 /d/a_R1.fq.gz -2 /d/a_R2.fq.gz -S /ws/aligned.sam",
		"/opt/st view -b /ws/aligned.sam -o /ws/filtered.bam -F 12 -@ 3",
		"/opt/st sort -n /ws/filtered.bam -o /ws/sorted.bam -@ 3",
		"/opt/st fastq /ws/sorted.bam -n -1 /ws/filtered_1.fastq -2 /ws/filtered_2.fastq -0 /dev/null -s /dev/null",
	}
	assertCommands(t, plan, want)

	if len(plan.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(plan.Outputs))
	}
	if plan.Outputs[0].Target != "a_R1.fq.gz" || plan.Outputs[0].Role != domain.RoleForward {
		t.Fatalf("unexpected forward output %+v", plan.Outputs[0])
	}
	if plan.Outputs[1].Target != "a_R2.fq.gz" || plan.Outputs[1].Role != domain.RoleReverse {
		t.Fatalf("unexpected reverse output %+v", plan.Outputs[1])
	}
}

func TestFilter_ReadsCompressedInput(t *testing.T) {
	f := NewFilter("idx", domain.DefaultFilterParams())
	if f.Decompress() {
		t.Fatalf("expected bowtie2 to read gzip input directly")
	}
	if f.Pipeline() != domain.PipelineFilter {
		t.Fatalf("expected filter pipeline, got %s", f.Pipeline())
	}
}

func assertCommands(t *testing.T, plan domain.ToolPlan, want []string) {
	t.Helper()
	got := make([]string, 0, len(plan.Commands))
	for _, c := range plan.Commands {
		got = append(got, filepath.ToSlash(c.String()))
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected commands:\n got\n  %s\n want\n  %s",
			strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}

package runstore

import (
	"time"

	"github.com/aalvaropc/readprep/internal/domain"
)

// RunDTO is the on-disk shape of a run report.
type RunDTO struct {
	ID           string      `json:"id"`
	Pipeline     string      `json:"pipeline"`
	ManifestPath string      `json:"manifest"`
	OutputDir    string      `json:"output_dir"`
	Profile      string      `json:"profile"`
	Status       string      `json:"status"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   time.Time   `json:"finished_at"`
	Samples      []SampleDTO `json:"samples"`
}

type SampleDTO struct {
	ID         string      `json:"id"`
	Layout     string      `json:"layout"`
	Inputs     []string    `json:"inputs"`
	Status     string      `json:"status"`
	Commands   []string    `json:"commands"`
	Outputs    []OutputDTO `json:"outputs"`
	ReadsIn    *int64      `json:"reads_in,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMS int64       `json:"duration_ms"`
	Error      *ErrorDTO   `json:"error,omitempty"`
}

type OutputDTO struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Reads *int64 `json:"reads,omitempty"`
	Empty bool   `json:"empty,omitempty"`
}

type ErrorDTO struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

// NewRunDTO converts run to its report shape.
func NewRunDTO(run domain.RunArtifact) RunDTO {
	out := RunDTO{
		ID:           run.ID,
		Pipeline:     string(run.Pipeline),
		ManifestPath: run.ManifestPath,
		OutputDir:    run.OutputDir,
		Profile:      run.Profile,
		Status:       string(run.Status),
		StartedAt:    run.StartedAt.UTC(),
		FinishedAt:   run.FinishedAt.UTC(),
		Samples:      make([]SampleDTO, 0, len(run.Samples)),
	}

	for _, s := range run.Samples {
		sd := SampleDTO{
			ID:         s.SampleID,
			Layout:     string(s.Layout),
			Inputs:     nonNil(s.Inputs),
			Status:     string(s.Status),
			Commands:   nonNil(s.Commands),
			Outputs:    make([]OutputDTO, 0, len(s.Outputs)),
			StartedAt:  s.StartedAt.UTC(),
			DurationMS: s.DurationMS,
		}
		if s.HasReadsIn {
			n := s.ReadsIn
			sd.ReadsIn = &n
		}
		for _, o := range s.Outputs {
			od := OutputDTO{Name: o.Name, Role: string(o.Role), Empty: o.Empty}
			if o.HasReads {
				n := o.Reads
				od.Reads = &n
			}
			sd.Outputs = append(sd.Outputs, od)
		}
		if s.Error != nil {
			sd.Error = &ErrorDTO{Kind: string(s.Error.Kind), Message: s.Error.Message, ExitCode: s.Error.ExitCode}
		}
		out.Samples = append(out.Samples, sd)
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

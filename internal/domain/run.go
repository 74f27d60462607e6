package domain

import "time"

// Pipeline names the kind of batch that produced a run.
type Pipeline string

const (
	PipelineTrim   Pipeline = "trim"
	PipelineFilter Pipeline = "filter"
	PipelineIndex  Pipeline = "index"
)

// RunStatus is the overall outcome of a run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunPartial   RunStatus = "partial"
)

// SampleStatus is the outcome of one sample.
type SampleStatus string

const (
	SamplePending   SampleStatus = "pending"
	SampleSucceeded SampleStatus = "succeeded"
	SampleFailed    SampleStatus = "failed"
	SampleSkipped   SampleStatus = "skipped"
	// SampleDiscarded ran to completion but its outputs were dropped along
	// with the rest of an aborted batch.
	SampleDiscarded SampleStatus = "discarded"
)

// RunError represents a structured per-sample error kept in run reports.
type RunError struct {
	Kind     ErrorKind
	Message  string
	ExitCode *int
}

// NewRunError classifies err for storage in a report.
func NewRunError(err error) *RunError {
	if err == nil {
		return nil
	}
	re := &RunError{Kind: KindOf(err), Message: err.Error()}
	if re.Kind == "" {
		re.Kind = "unknown"
	}
	if tie := asToolError(err); tie != nil {
		code := tie.ExitCode
		re.ExitCode = &code
	}
	return re
}

// SampleResult is the outcome of processing one sample.
type SampleResult struct {
	SampleID string
	Layout   Layout
	Inputs   []string
	Status   SampleStatus

	// Commands holds command templates (see Command.Template).
	Commands []string
	Outputs  []CollectedOutput

	ReadsIn    int64
	HasReadsIn bool

	StartedAt  time.Time
	DurationMS int64

	Error *RunError
}

// RunArtifact represents a persisted batch run for reproducibility.
type RunArtifact struct {
	ID string

	Pipeline     Pipeline
	ManifestPath string
	OutputDir    string
	Profile      string
	Status       RunStatus

	StartedAt  time.Time
	FinishedAt time.Time

	Samples []SampleResult
}

// RunRef is a lightweight entry of the run index.
type RunRef struct {
	ID        string
	File      string
	Pipeline  Pipeline
	Status    RunStatus
	Samples   int
	StartedAt time.Time
}

// SampleStage is a progress milestone reported while a sample is processed.
type SampleStage string

const (
	StageQueued     SampleStage = "queued"
	StageStaging    SampleStage = "staging"
	StageRunning    SampleStage = "running"
	StageCollecting SampleStage = "collecting"
	StageDone       SampleStage = "done"
	StageFailed     SampleStage = "failed"
)

// SampleEvent is emitted to progress observers.
type SampleEvent struct {
	Index    int
	Total    int
	SampleID string
	Stage    SampleStage
	Err      error
}

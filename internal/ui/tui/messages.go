package tui

import "github.com/aalvaropc/readprep/internal/domain"

type sampleEventMsg domain.SampleEvent

// eventsClosedMsg means the observer channel was drained after the batch
// returned.
type eventsClosedMsg struct{}

type batchDoneMsg struct {
	run domain.RunArtifact
	id  string
	err error
}

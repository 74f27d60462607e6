package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aalvaropc/readprep/internal/domain"
)

// eventBuffer bounds the events one sample can emit: queued, staging,
// running, collecting and a final done/failed.
const eventBuffer = 6

func cmdStartBatch(ctx context.Context, batch BatchFunc, events chan<- domain.SampleEvent, done chan<- batchDoneMsg) tea.Cmd {
	return func() tea.Msg {
		run, id, err := batch(ctx, func(ev domain.SampleEvent) {
			select {
			case events <- ev:
			default:
			}
		})
		close(events)
		msg := batchDoneMsg{run: run, id: id, err: err}
		done <- msg
		return msg
	}
}

func cmdWaitForEvent(events <-chan domain.SampleEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return sampleEventMsg(ev)
	}
}

// Package tui renders batch progress in the terminal while samples are
// processed.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aalvaropc/readprep/internal/domain"
)

type sampleRow struct {
	id    string
	stage domain.SampleStage
	err   error
}

type model struct {
	theme   Theme
	title   string
	spinner spinner.Model

	rows   []sampleRow
	events <-chan domain.SampleEvent
	start  tea.Cmd
	cancel context.CancelFunc

	width     int
	canceling bool
	finished  bool
	drained   bool
	result    batchDoneMsg
}

// Run shows progress for batch and returns its result. The first ctrl+c
// cancels the batch and waits for it to wind down; a second one leaves the
// view immediately.
func Run(ctx context.Context, deps Deps, batch BatchFunc, opts ...tea.ProgramOption) (domain.RunArtifact, string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	events := make(chan domain.SampleEvent, eventBuffer*max(len(deps.Samples), 1))
	done := make(chan batchDoneMsg, 1)

	m := newModel(deps, events, cancel)
	m.start = cmdStartBatch(ctx, batch, events, done)

	p := tea.NewProgram(wrapSafe(m, log), opts...)
	if _, err := p.Run(); err != nil {
		log.Error("tui.failed", "error", err.Error())
	}

	// The view may have been left before the batch returned.
	cancel()
	res := <-done
	return res.run, res.id, res.err
}

func newModel(deps Deps, events <-chan domain.SampleEvent, cancel context.CancelFunc) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	t := DefaultTheme()
	sp.Style = t.Active

	rows := make([]sampleRow, len(deps.Samples))
	for i, id := range deps.Samples {
		rows[i] = sampleRow{id: id, stage: domain.StageQueued}
	}

	return model{
		theme:   t,
		title:   deps.Title,
		spinner: sp,
		rows:    rows,
		events:  events,
		cancel:  cancel,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start, cmdWaitForEvent(m.events))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.finished || m.canceling {
				return m, tea.Quit
			}
			m.canceling = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, nil

	case sampleEventMsg:
		m.apply(domain.SampleEvent(msg))
		return m, cmdWaitForEvent(m.events)

	case eventsClosedMsg:
		m.drained = true
		return m, m.quitIfDone()

	case batchDoneMsg:
		m.finished = true
		m.result = msg
		return m, m.quitIfDone()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) apply(ev domain.SampleEvent) {
	if ev.Index < 0 || ev.Index >= len(m.rows) {
		return
	}
	r := &m.rows[ev.Index]
	if r.id == "" {
		r.id = ev.SampleID
	}
	r.stage = ev.Stage
	if ev.Err != nil {
		r.err = ev.Err
	}
}

// quitIfDone leaves once every event has been shown and the batch returned.
func (m model) quitIfDone() tea.Cmd {
	if m.finished && m.drained {
		return tea.Quit
	}
	return nil
}

func (m model) counts() (done, failed int) {
	for _, r := range m.rows {
		switch r.stage {
		case domain.StageDone:
			done++
		case domain.StageFailed:
			failed++
		}
	}
	return done, failed
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.title))
	b.WriteString("\n\n")

	width := m.width - 8
	if width < 20 {
		width = 60
	}

	for _, r := range m.rows {
		b.WriteString(m.renderRow(r, width))
		b.WriteString("\n")
	}

	done, failed := m.counts()
	status := fmt.Sprintf("%d/%d done", done, len(m.rows))
	if failed > 0 {
		status += m.theme.Failed.Render(fmt.Sprintf(" • %d failed", failed))
	}

	var help string
	switch {
	case m.finished:
		help = ""
	case m.canceling:
		help = "canceling, waiting for running tools • ctrl+c again to leave"
	default:
		help = "ctrl+c cancel"
	}

	b.WriteString("\n")
	b.WriteString(status)
	if help != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Help.Render(help))
	}
	if m.finished {
		b.WriteString("\n\n")
		b.WriteString(renderSummary(m.theme, m.result.run, m.result.id))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m model) renderRow(r sampleRow, width int) string {
	var mark string
	switch r.stage {
	case domain.StageQueued:
		mark = m.theme.Help.Render("·")
	case domain.StageDone:
		mark = m.theme.Done.Render("✓")
	case domain.StageFailed:
		mark = m.theme.Failed.Render("✗")
	default:
		mark = m.spinner.View()
	}

	line := fmt.Sprintf("%s %s %s", mark, r.id, m.theme.Subtitle.Render(string(r.stage)))
	if r.err != nil {
		line += "  " + m.theme.Failed.Render(clampString(UserMessage(r.err), width))
	}
	return line
}

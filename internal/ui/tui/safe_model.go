package tui

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
)

// safeModel keeps a rendering bug from tearing the terminal down while
// tools are still running. After a panic the batch is canceled and the
// program only waits for it to return.
type safeModel struct {
	m       model
	log     *slog.Logger
	crashed bool
}

func wrapSafe(m model, log *slog.Logger) safeModel {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return safeModel{m: m, log: log}
}

func (s safeModel) Init() tea.Cmd {
	return s.m.Init()
}

func (s safeModel) Update(msg tea.Msg) (next tea.Model, cmd tea.Cmd) {
	if s.crashed {
		return s.afterCrash(msg)
	}

	defer func() {
		if r := recover(); r != nil {
			s.report("tui.update", r)
			s.crashed = true
			if s.m.cancel != nil {
				s.m.cancel()
			}
			s.m.canceling = true
			next, cmd = s, nil
		}
	}()

	inner, c := s.m.Update(msg)
	if mm, ok := inner.(model); ok {
		s.m = mm
	}
	return s, c
}

// afterCrash ignores everything but the batch result and a forced exit.
func (s safeModel) afterCrash(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case batchDoneMsg:
		s.m.finished = true
		s.m.result = msg
		return s, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return s, tea.Quit
		}
	}
	return s, nil
}

func (s safeModel) View() (out string) {
	if s.crashed {
		return crashNotice
	}
	defer func() {
		if r := recover(); r != nil {
			s.report("tui.view", r)
			out = crashNotice
		}
	}()
	return s.m.View()
}

const crashNotice = "Progress view failed; stopping running tools (details in .readprep/logs/readprep.log)"

func (s safeModel) report(where string, r any) {
	s.log.Error("panic.recovered",
		"where", where,
		"panic", fmt.Sprint(r),
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = safeModel{}

package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "donetasker/internal/errors"
	"donetasker/internal/model"
	"donetasker/internal/service"
	"donetasker/internal/stopwatch"
	"donetasker/internal/timeutil"
)

// timerControl is the slice of the timer service the watch screen drives.
type timerControl interface {
	Stop(ctx context.Context, userID, taskID string) (*model.WorkSession, *apperrors.APIError)
	ActiveSession(ctx context.Context, userID, taskID string) (*model.WorkSession, *apperrors.APIError)
	TotalTime(ctx context.Context, userID, taskID string) (*service.TotalView, *apperrors.APIError)
}

var bandColors = map[timeutil.Band]lipgloss.Color{
	timeutil.BandFresh:    lipgloss.Color("#22C55E"),
	timeutil.BandAging:    lipgloss.Color("#F97316"),
	timeutil.BandStale:    lipgloss.Color("#C2410C"),
	timeutil.BandOverdue:  lipgloss.Color("#EF4444"),
	timeutil.BandCritical: lipgloss.Color("#B91C1C"),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E6EAF2"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	clockStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
)

type watchKeyMap struct {
	Stop key.Binding
	Quit key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stop, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		Stop: key.NewBinding(key.WithKeys("s", "S"), key.WithHelp("s", "stop timer")),
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type frameMsg stopwatch.Frame

type stoppedMsg struct {
	frame stopwatch.Frame
	total string
	err   error
}

// sessionOpenMsg confirms the watched session is still open after a tick.
type sessionOpenMsg struct{}

type sessionErrMsg struct {
	err error
}

// watchModel renders a task's running session as a live clock. Frames arrive
// from the display's tick goroutine over a buffered channel. After each frame
// the store is asked whether the session is still open, so a stop or
// completion made elsewhere freezes the clock.
type watchModel struct {
	ctx       context.Context
	timer     timerControl
	userID    string
	task      service.TaskView
	sessionID string
	display   *stopwatch.Display
	frames    chan stopwatch.Frame

	frame    stopwatch.Frame
	total    string
	totalMs  int64
	stopping bool
	err      error

	keys watchKeyMap
	help help.Model
}

func newWatchModel(ctx context.Context, timer timerControl, userID string, task service.TaskView, display func(onFrame func(stopwatch.Frame)) *stopwatch.Display) *watchModel {
	frames := make(chan stopwatch.Frame, 1)
	m := &watchModel{
		ctx:    ctx,
		timer:  timer,
		userID: userID,
		task:   task,
		frames: frames,
		keys:   defaultWatchKeys(),
		help:   help.New(),
	}
	if task.Total != nil {
		m.total = task.Total.Total
		m.totalMs = task.Total.TotalMilliseconds
	}

	m.display = display(func(f stopwatch.Frame) {
		select {
		case frames <- f:
		default:
		}
	})
	if task.ActiveSession != nil {
		m.sessionID = task.ActiveSession.ID
		start := task.ActiveSession.StartTime
		m.frame = m.display.Set(&start, true)
	} else {
		m.frame = m.display.Set(nil, false)
	}
	return m
}

func (m *watchModel) Init() tea.Cmd {
	return m.waitForFrame()
}

func (m *watchModel) waitForFrame() tea.Cmd {
	frames := m.frames
	return func() tea.Msg {
		return frameMsg(<-frames)
	}
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if m.frame.State != stopwatch.StateRunning {
			return m, m.waitForFrame()
		}
		m.frame = stopwatch.Frame(msg)
		return m, m.checkSession()

	case sessionOpenMsg:
		return m, m.waitForFrame()

	case sessionErrMsg:
		m.err = msg.err
		return m, m.waitForFrame()

	case stoppedMsg:
		m.stopping = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.frame = msg.frame
		m.total = msg.total
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.display.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Stop):
			if m.frame.State != stopwatch.StateRunning || m.stopping {
				return m, nil
			}
			m.stopping = true
			return m, m.stopTimer()
		}
	}
	return m, nil
}

func (m *watchModel) stopTimer() tea.Cmd {
	return func() tea.Msg {
		if _, apiErr := m.timer.Stop(m.ctx, m.userID, m.task.ID); apiErr != nil {
			return stoppedMsg{err: apiErr}
		}
		msg, err := m.freeze()
		if err != nil {
			return stoppedMsg{err: err}
		}
		return msg
	}
}

// checkSession freezes the display once the watched session is no longer the
// task's open one.
func (m *watchModel) checkSession() tea.Cmd {
	lastTotal, lastTotalMs := m.total, m.totalMs
	return func() tea.Msg {
		open, apiErr := m.timer.ActiveSession(m.ctx, m.userID, m.task.ID)
		if apiErr != nil {
			if apiErr.Status == http.StatusNotFound {
				frame := m.display.Stop(time.Duration(lastTotalMs) * time.Millisecond)
				return stoppedMsg{frame: frame, total: lastTotal}
			}
			return sessionErrMsg{err: apiErr}
		}
		if open != nil && open.ID == m.sessionID {
			return sessionOpenMsg{}
		}
		msg, err := m.freeze()
		if err != nil {
			return sessionErrMsg{err: err}
		}
		return msg
	}
}

// freeze stops the display on the task's closed-session total.
func (m *watchModel) freeze() (stoppedMsg, error) {
	total, apiErr := m.timer.TotalTime(m.ctx, m.userID, m.task.ID)
	if apiErr != nil {
		return stoppedMsg{}, apiErr
	}
	frame := m.display.Stop(time.Duration(total.TotalMilliseconds) * time.Millisecond)
	return stoppedMsg{frame: frame, total: total.Total}, nil
}

func (m *watchModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.task.Title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("created %s ago · %s", m.task.AgeText, m.task.Urgency)))
	b.WriteString("\n\n")

	style := clockStyle.Foreground(bandColors[m.frame.Band]).BorderForeground(bandColors[m.frame.Band])
	b.WriteString(style.Render(m.frame.Text))
	b.WriteString("\n")

	switch m.frame.State {
	case stopwatch.StateRunning:
		b.WriteString(dimStyle.Render("running"))
	case stopwatch.StateStopped:
		b.WriteString(dimStyle.Render("stopped"))
	default:
		b.WriteString(dimStyle.Render("no timer running"))
	}
	if m.total != "" {
		b.WriteString(dimStyle.Render("  total " + m.total))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// statusLine is the single line printed when stdout is not a terminal.
func statusLine(task service.TaskView, now time.Time) string {
	total := "00:00:00"
	if task.Total != nil {
		total = task.Total.Total
	}
	if task.ActiveSession == nil {
		return fmt.Sprintf("%s\tidle\ttotal %s", task.Title, total)
	}
	running := timeutil.Since(task.ActiveSession.StartTime, now)
	return fmt.Sprintf("%s\trunning %s\ttotal %s", task.Title, running, total)
}

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/apled/internal/render"
)

// Controller is the device surface the watch view drives.
type Controller interface {
	Status(ctx context.Context) (*render.StatusDocument, error)
	Engage(ctx context.Context) (bool, error)
	Disengage(ctx context.Context) (bool, error)
	Toggle(ctx context.Context) (bool, error)
}

type action int

const (
	actionRefresh action = iota
	actionEngage
	actionDisengage
	actionToggle
)

func (a action) String() string {
	switch a {
	case actionEngage:
		return "on"
	case actionDisengage:
		return "off"
	case actionToggle:
		return "toggle"
	default:
		return "refresh"
	}
}

// resultMsg carries the status read after an action.
type resultMsg struct {
	action action
	doc    *render.StatusDocument
	err    error
}

type tickMsg time.Time

type watchKeyMap struct {
	On      key.Binding
	Off     key.Binding
	Toggle  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.On, k.Off, k.Toggle, k.Refresh, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var watchKeys = watchKeyMap{
	On: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "on"),
	),
	Off: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "off"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("t", " "),
		key.WithHelp("t", "toggle"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// WatchModel polls a device and lets the user drive it from the keyboard.
// One request is in flight at a time; keys pressed while busy are ignored.
type WatchModel struct {
	ctl      Controller
	addr     string
	interval time.Duration
	timeout  time.Duration

	doc     *render.StatusDocument
	err     error
	last    action
	updated time.Time
	busy    bool

	spinner spinner.Model
	help    help.Model
	width   int
}

// NewWatchModel creates a watch view for ctl, polling every interval.
func NewWatchModel(ctl Controller, addr string, interval, timeout time.Duration) WatchModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = BusyStyle
	return WatchModel{
		ctl:      ctl,
		addr:     addr,
		interval: interval,
		timeout:  timeout,
		busy:     true, // Init starts the first refresh
		spinner:  s,
		help:     help.New(),
		width:    GetTerminalWidth(),
	}
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run(actionRefresh), m.tick())
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// run performs a and then reads the status document so every field on
// screen comes from the same response.
func (m WatchModel) run(a action) tea.Cmd {
	ctl, timeout := m.ctl, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var err error
		switch a {
		case actionEngage:
			_, err = ctl.Engage(ctx)
		case actionDisengage:
			_, err = ctl.Disengage(ctx)
		case actionToggle:
			_, err = ctl.Toggle(ctx)
		}
		if err != nil {
			return resultMsg{action: a, err: err}
		}

		doc, err := ctl.Status(ctx)
		return resultMsg{action: a, doc: doc, err: err}
	}
}

func (m WatchModel) start(a action) (WatchModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	return m, m.run(a)
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, watchKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, watchKeys.On):
			return m.start(actionEngage)
		case key.Matches(msg, watchKeys.Off):
			return m.start(actionDisengage)
		case key.Matches(msg, watchKeys.Toggle):
			return m.start(actionToggle)
		case key.Matches(msg, watchKeys.Refresh):
			return m.start(actionRefresh)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width, nil)
		m.help.Width = m.width
		return m, nil

	case tickMsg:
		next, cmd := m.start(actionRefresh)
		return next, tea.Batch(cmd, m.tick())

	case resultMsg:
		m.busy = false
		m.last = msg.action
		m.err = msg.err
		if msg.doc != nil {
			m.doc = msg.doc
			m.updated = time.Now()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m WatchModel) View() string {
	var b strings.Builder

	if m.doc == nil {
		b.WriteString(TitleStyle.Render("apled watch") + "  " + SubtitleStyle.Render(m.addr) + "\n")
	} else {
		panel := StatusPanel(m.addr, m.doc, m.width)
		if m.doc.LEDState {
			panel.Border = SuccessColor
		}
		b.WriteString(panel.Render() + "\n")
	}

	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + BusyStyle.Render(" talking to device...") + "\n")
	case m.err != nil:
		b.WriteString(ErrorMessageStyle.Render(FailureMarker+" "+m.last.String()+": "+m.err.Error()) + "\n")
	case !m.updated.IsZero():
		b.WriteString(HintStyle.Render("updated "+m.updated.Format("15:04:05")) + "\n")
	}

	b.WriteString(m.help.View(watchKeys))
	return b.String()
}

// Doc returns the most recent status document, nil before the first poll.
func (m WatchModel) Doc() *render.StatusDocument {
	return m.doc
}

// Err returns the error from the most recent request.
func (m WatchModel) Err() error {
	return m.err
}

// RunWatch runs the watch view until the user quits.
func RunWatch(ctl Controller, addr string, interval, timeout time.Duration) error {
	_, err := tea.NewProgram(NewWatchModel(ctl, addr, interval, timeout)).Run()
	return err
}

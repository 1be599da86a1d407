package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/eip"
	"github.com/yllada/bitmask-client/statuspanel"
)

// EIP is the part of eip.Manager the screen drives.
type EIP interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
}

// Mail is the part of mail.IMAPController the screen drives.
type Mail interface {
	FetchNow()
}

// StateMsg carries an EIP state change.
type StateMsg struct{ Data eip.Data }

// StatusMsg carries EIP throughput counters.
type StatusMsg struct{ Data eip.Data }

// StoppedMsg reports that OpenVPN exited.
type StoppedMsg struct{ Err error }

// MailStartedMsg reports the outcome of starting the mail service.
type MailStartedMsg struct{ Err error }

type eipStartedMsg struct{ err error }

type eipStopFailedMsg struct{ err error }

type scheduledMsg struct{}

// state is shared by every copy of Model.
type state struct {
	view    *panelView
	panel   *statuspanel.Panel
	pending []func()
	queued  []tea.Cmd

	mailStatus string
	readBytes  uint64
	writeBytes uint64
}

// Model is the Bubble Tea model of the status screen.
type Model struct {
	ctx     context.Context
	eip     EIP
	mail    Mail
	keys    *KeyMap
	spinner spinner.Model
	st      *state
	width   int
}

// New creates the screen model. A provider name is shown under the status
// when set, and canStart enables the toggle.
func New(ctx context.Context, e EIP, m Mail, provider string, canStart bool) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorYellow)

	st := &state{view: &panelView{}}
	scheduler := statuspanel.SchedulerFunc(func(fn func()) {
		st.pending = append(st.pending, fn)
	})

	model := Model{
		ctx:     ctx,
		eip:     e,
		mail:    m,
		keys:    DefaultKeyMap(),
		spinner: sp,
		st:      st,
	}

	st.panel = statuspanel.New(st.view, nil, scheduler, statuspanel.CurrentPlatform())
	st.panel.StartEIP.Connect(model.startEIP)
	st.panel.StopEIP.Connect(model.stopEIP)
	st.panel.SetProvider(provider)
	st.panel.SetEIPStatus(statuspanel.StatusLabel(""), false)
	st.panel.SetEIPStatusIcon("")
	if canStart {
		st.panel.SetStartStopEnabled(true)
	} else {
		st.panel.SetGlobalStatus("No Encrypted Internet configuration set", true)
	}
	return model
}

// Panel returns the status panel the screen renders.
func (m Model) Panel() *statuspanel.Panel {
	return m.st.panel
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) startEIP() {
	m.st.panel.EIPPreUp()
	e, ctx := m.eip, m.ctx
	m.st.queued = append(m.st.queued, func() tea.Msg {
		return eipStartedMsg{err: e.Start(ctx)}
	})
}

func (m Model) stopEIP() {
	if !m.eip.IsRunning() {
		m.st.panel.EIPStopped()
		m.st.panel.SetStartStopEnabled(true)
		return
	}
	m.st.panel.SetStartStopEnabled(false)
	e := m.eip
	m.st.queued = append(m.st.queued, func() tea.Msg {
		if err := e.Stop(); err != nil && !errors.Is(err, common.ErrNotRunning) {
			return eipStopFailedMsg{err: err}
		}
		return nil
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m, cmd = m.handle(msg)
	return m, tea.Batch(cmd, m.flush())
}

func (m Model) handle(msg tea.Msg) (Model, tea.Cmd) {
	panel := m.st.panel

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			panel.Toggle()
		case key.Matches(msg, m.keys.Fetch):
			m.mail.FetchNow()
			m.st.mailStatus = "Checking mail..."
		}

	case StateMsg:
		panel.UpdateVPNState(msg.Data)

	case StatusMsg:
		panel.UpdateVPNStatus(msg.Data)
		m.st.readBytes = parseCounter(msg.Data[eip.TunTapReadKey])
		m.st.writeBytes = parseCounter(msg.Data[eip.TunTapWriteKey])

	case StoppedMsg:
		panel.EIPStopped()
		panel.SetStartStopEnabled(true)
		panel.SetEIPStatus(statuspanel.StatusLabel(""), false)
		panel.SetEIPStatusIcon("")
		if msg.Err != nil {
			panel.SetGlobalStatus(fmt.Sprintf("Encrypted Internet stopped: %v", msg.Err), true)
		}

	case eipStartedMsg:
		switch {
		case msg.err == nil:
			panel.EIPStarted()
		case errors.Is(msg.err, common.ErrAlreadyRunning):
			// The state message stops and reports
		default:
			panel.EIPStopped()
			panel.SetStartStopEnabled(true)
			panel.SetGlobalStatus(msg.err.Error(), true)
		}

	case eipStopFailedMsg:
		panel.SetStartStopEnabled(true)
		panel.SetGlobalStatus(msg.err.Error(), true)

	case MailStartedMsg:
		if msg.Err != nil {
			m.st.mailStatus = "Mail unavailable: " + msg.Err.Error()
		} else {
			m.st.mailStatus = "Mail service running"
		}

	case scheduledMsg:
		pending := m.st.pending
		m.st.pending = nil
		for _, fn := range pending {
			fn()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// flush returns the commands queued by panel signals and, when panel work
// was scheduled, a message to run it on the next update.
func (m Model) flush() tea.Cmd {
	cmds := m.st.queued
	m.st.queued = nil
	if len(m.st.pending) > 0 {
		cmds = append(cmds, func() tea.Msg { return scheduledMsg{} })
	}
	return tea.Batch(cmds...)
}

func parseCounter(value string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// View renders the screen.
func (m Model) View() string {
	v := m.st.view
	var b strings.Builder

	b.WriteString(titleStyle.Render(common.AppName))
	b.WriteString("\n\n")

	status := statusStyle.Render(v.status)
	if v.statusErr {
		status = errorStyle.Render(v.status)
	}
	b.WriteString(fmt.Sprintf("%s  Encrypted Internet  %s  %s", iconGlyph(v.icon), m.renderToggle(), status))
	b.WriteString("\n")

	if v.provider != "" {
		b.WriteString(dimStyle.Render("   " + v.provider))
		b.WriteString("\n")
	}

	if v.upload != "" || v.download != "" {
		b.WriteString(fmt.Sprintf("   ↑%s  ↓%s\n", v.upload, v.download))
		b.WriteString(dimStyle.Render(fmt.Sprintf("   %s sent, %s received",
			humanize.Bytes(m.st.writeBytes), humanize.Bytes(m.st.readBytes))))
		b.WriteString("\n")
	}

	if v.globalVisible && v.global != "" {
		box := globalStyle
		if v.globalErr {
			box = globalErrorStyle
		}
		b.WriteString(box.Render(v.global))
		b.WriteString("\n")
	}

	if m.st.mailStatus != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Mail: " + m.st.mailStatus))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderToggle() string {
	v := m.st.view
	if !v.enabled {
		return dimStyle.Render("[ --- ]")
	}
	switch v.style {
	case statuspanel.StyleOn:
		return onStyle.Render("[ ON  ]")
	case statuspanel.StyleInProgress:
		return inProgressStyle.Render("[ " + m.spinner.View() + " ]")
	default:
		return offStyle.Render("[ OFF ]")
	}
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+dimStyle.Render(h.Desc))
	}
	return strings.Join(parts, dimStyle.Render(" • "))
}

func iconGlyph(icon statuspanel.Icon) string {
	switch icon {
	case statuspanel.IconConnected:
		return onStyle.Render("●")
	case statuspanel.IconConnecting:
		return inProgressStyle.Render("◌")
	default:
		return errorStyle.Render("✖")
	}
}

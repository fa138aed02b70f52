// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     intakeform
// Description: Bubbletea model for the healthcare intake form
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package intakeform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/intake/internal/intake"
	"github.com/msto63/intake/internal/intake/binder"
	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/internal/intake/notify"
	"github.com/msto63/intake/internal/intake/store"
)

// ViewMode is the active screen
type ViewMode int

const (
	ViewForm ViewMode = iota
	ViewRecords
)

// Controller is the form behaviour the TUI drives
type Controller interface {
	Fields() *form.FieldSet
	VoiceEnabled() bool
	Set(name form.FieldName, value string) error
	Listen(ctx context.Context, name form.FieldName) (binder.VoiceRequest, error)
	Apply(req binder.VoiceRequest) bool
	Save(ctx context.Context) (form.Record, store.PersistResult)
	Clear()
	Records(ctx context.Context) ([]store.PersistedRow, error)
}

// Config holds TUI configuration
type Config struct {
	// VoiceTimeout bounds one capture plus recognition
	VoiceTimeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{VoiceTimeout: 30 * time.Second}
}

// Model is the main Bubble Tea model
type Model struct {
	// Dimensions
	width, height int

	// State
	viewMode  ViewMode
	focus     int
	busy      bool
	busyLabel string
	status    notify.Notification
	summary   string

	// Components
	spinner spinner.Model
	inputs  []textinput.Model
	names   []form.FieldName
	records table.Model

	ctrl          Controller
	notifications <-chan notify.Notification
	cfg           Config
}

// NewModel creates the form model. notifications may be nil.
func NewModel(ctrl Controller, notifications <-chan notify.Notification, cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	fields := ctrl.Fields().Fields()
	inputs := make([]textinput.Model, len(fields))
	names := make([]form.FieldName, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = f.Definition().Prompt
		in.CharLimit = 0
		in.Width = 48
		in.SetValue(f.Value())
		inputs[i] = in
		names[i] = f.Name()
	}
	if len(inputs) > 0 {
		inputs[0].Focus()
	}

	return Model{
		spinner:       s,
		inputs:        inputs,
		names:         names,
		records:       newRecordsTable(nil, 12),
		ctrl:          ctrl,
		notifications: notifications,
		cfg:           cfg,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForNotification(m.notifications))
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.viewMode == ViewRecords {
			return m.updateRecordsView(msg)
		}
		return m.updateFormView(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.records.SetHeight(max(5, m.height-10))

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case notificationMsg:
		n := notify.Notification(msg)
		if n.Title == intake.TitleSummary {
			m.summary = n.Message
		} else {
			m.status = n
		}
		return m, waitForNotification(m.notifications)

	case voiceResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = notify.Errorf("Voice Input", msg.err.Error())
			return m, nil
		}
		// the field set is only mutated here, never inside the command
		if m.ctrl.Apply(msg.req) {
			if i := m.indexOf(msg.req.Field); i >= 0 {
				m.inputs[i].SetValue(msg.req.Text)
				m.inputs[i].CursorEnd()
			}
		}

	case savedMsg:
		m.busy = false

	case recordsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = notify.Errorf("Records", msg.err.Error())
			return m, nil
		}
		m.records = newRecordsTable(msg.rows, m.records.Height())
		m.viewMode = ViewRecords
	}

	return m, nil
}

// updateFormView handles form view keys
func (m Model) updateFormView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit

	case "tab", "down", "enter":
		m.focus = (m.focus + 1) % len(m.inputs)
		m.updateFocus()
		return m, nil

	case "shift+tab", "up":
		m.focus = (m.focus - 1 + len(m.inputs)) % len(m.inputs)
		m.updateFocus()
		return m, nil

	case "ctrl+v":
		if !m.ctrl.VoiceEnabled() {
			m.status = notify.Errorf("Voice Input", "No microphone configured.")
			return m, nil
		}
		m.busy = true
		m.busyLabel = "Listening... Please speak now."
		return m, tea.Batch(m.spinner.Tick, m.listen(m.names[m.focus]))

	case "ctrl+s":
		m.summary = ""
		m.busy = true
		m.busyLabel = "Saving..."
		return m, tea.Batch(m.spinner.Tick, m.save())

	case "ctrl+l":
		m.ctrl.Clear()
		for i := range m.inputs {
			m.inputs[i].Reset()
		}
		m.summary = ""
		m.status = notify.Notification{}
		return m, nil

	case "ctrl+r":
		m.busy = true
		m.busyLabel = "Loading records..."
		return m, tea.Batch(m.spinner.Tick, m.loadRecords())
	}

	var cmd tea.Cmd
	before := m.inputs[m.focus].Value()
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if after := m.inputs[m.focus].Value(); after != before {
		if err := m.ctrl.Set(m.names[m.focus], after); err != nil {
			m.status = notify.Errorf("Form", err.Error())
		}
	}
	return m, cmd
}

// updateRecordsView handles records view keys
func (m Model) updateRecordsView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "ctrl+r":
		m.viewMode = ViewForm
		return m, nil
	}

	var cmd tea.Cmd
	m.records, cmd = m.records.Update(msg)
	return m, cmd
}

func (m *Model) updateFocus() {
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m Model) indexOf(name form.FieldName) int {
	for i, n := range m.names {
		if n == name {
			return i
		}
	}
	return -1
}

// View implements tea.Model
func (m Model) View() string {
	if m.viewMode == ViewRecords {
		return m.viewRecords()
	}
	return m.viewForm()
}

// viewForm renders the form
func (m Model) viewForm() string {
	var b strings.Builder

	b.WriteString(TitlePanelStyle.Render(LogoStyle.Render(Logo)))
	b.WriteString("\n")

	for i, in := range m.inputs {
		f := m.ctrl.Fields().Field(m.names[i])
		label := LabelStyle.Render(f.Definition().Label)
		box := InputBorderStyle.Render(in.View())
		if i == m.focus {
			label = FocusedLabelStyle.Render(f.Definition().Label)
			box = InputBorderFocusedStyle.Render(in.View())
		}
		mic := "  "
		if m.ctrl.VoiceEnabled() {
			mic = MicStyle.Render("🎤")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, label, box, " ", mic))
		b.WriteString("\n")
	}

	if m.summary != "" {
		b.WriteString("\n")
		b.WriteString(SummaryStyle.Render(intake.TitleSummary + "\n\n" + m.summary))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StatusBarStyle.Render(m.statusLine()))
	b.WriteString("\n")

	help := []string{
		RenderKeyHint("Tab", "Next"),
		RenderKeyHint("Ctrl+V", "Speak"),
		RenderKeyHint("Ctrl+S", "Summary & Save"),
		RenderKeyHint("Ctrl+L", "Clear"),
		RenderKeyHint("Ctrl+R", "View Records"),
		RenderKeyHint("Esc", "Quit"),
	}
	b.WriteString(HelpStyle.Render(strings.Join(help, "  ")))

	return b.String()
}

func (m Model) statusLine() string {
	switch {
	case m.busy:
		return m.spinner.View() + " " + StatusRunningStyle.Render(m.busyLabel)
	case m.status.Message == "":
		return HelpDescStyle.Render("Ready")
	case m.status.Level == notify.Error:
		return StatusErrorStyle.Render(m.status.Message)
	default:
		return StatusInfoStyle.Render(m.status.Message)
	}
}

// viewRecords renders the persisted records table
func (m Model) viewRecords() string {
	var b strings.Builder

	b.WriteString(TitlePanelStyle.Render(LogoStyle.Render("Records")))
	b.WriteString("\n")
	if len(m.records.Rows()) == 0 {
		b.WriteString(HelpDescStyle.Render("No records saved yet."))
		b.WriteString("\n")
	} else {
		b.WriteString(PanelStyle.Render(m.records.View()))
		b.WriteString("\n")
		b.WriteString(HelpDescStyle.Render(fmt.Sprintf("%d records", len(m.records.Rows()))))
	}
	b.WriteString(HelpStyle.Render(
		RenderKeyHint("↑/↓", "Scroll") + "  " +
			RenderKeyHint("Esc", "Back")))

	return b.String()
}

// RecordColumns are the headings of the records view
var RecordColumns = []string{"S.NO.", "Name", "Age", "Gender", "Contact", "Symptoms", "Duration", "Medications", "Follow-up"}

func newRecordsTable(rows []store.PersistedRow, height int) table.Model {
	cols := make([]table.Column, len(RecordColumns))
	for i, title := range RecordColumns {
		width := 14
		if i == 0 {
			width = 6
		}
		cols[i] = table.Column{Title: title, Width: width}
	}

	trows := make([]table.Row, len(rows))
	for i, r := range rows {
		row := table.Row{fmt.Sprintf("%d", r.ID)}
		trows[i] = append(row, r.Record.Values()...)
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(trows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	t.SetStyles(tableStyles())
	return t
}

func (m Model) listen(name form.FieldName) tea.Cmd {
	ctrl, timeout := m.ctrl, m.cfg.VoiceTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		req, err := ctrl.Listen(ctx, name)
		return voiceResultMsg{req: req, err: err}
	}
}

func (m Model) save() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		rec, res := ctrl.Save(context.Background())
		return savedMsg{record: rec, result: res}
	}
}

func (m Model) loadRecords() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		rows, err := ctrl.Records(context.Background())
		return recordsLoadedMsg{rows: rows, err: err}
	}
}

func waitForNotification(ch <-chan notify.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

// ChannelNotifier returns a notifier that forwards into the TUI. Messages
// are dropped when the buffer is full.
func ChannelNotifier(size int) (notify.Notifier, <-chan notify.Notification) {
	ch := make(chan notify.Notification, size)
	return notify.Func(func(n notify.Notification) {
		select {
		case ch <- n:
		default:
		}
	}), ch
}

// Run starts the intake form TUI
func Run(ctrl Controller, notifications <-chan notify.Notification, cfg Config) error {
	p := tea.NewProgram(NewModel(ctrl, notifications, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/meridian/pkg/lx200"
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// consoleEntry is one line of the exchange log
type consoleEntry struct {
	timestamp time.Time
	record    *lx200.Record // nil for local notes
	message   string
	isError   bool
}

// consoleModel is the Bubble Tea model for the console TUI
type consoleModel struct {
	session  *consoleSession
	connInfo string

	// Exchange log
	log           []consoleEntry
	maxLogEntries int

	// Command entry
	input      textinput.Model
	history    []string
	historyIdx int
	busy       bool

	// UI state
	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type consoleTickMsg time.Time

type exchangeDoneMsg struct {
	record lx200.Record
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialConsoleModel(session *consoleSession, connInfo string) consoleModel {
	ti := textinput.New()
	ti.Placeholder = ":GR#"
	ti.Prompt = "> "
	ti.CharLimit = 4 * lx200.MaxCommandLength
	ti.Width = 40
	ti.Focus()

	return consoleModel{
		session:       session,
		connInfo:      connInfo,
		log:           make([]consoleEntry, 0),
		maxLogEntries: 200,
		input:         ti,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, consoleTickCmd())
}

func consoleTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return consoleTickMsg(t)
	})
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(m.width-10, 10)

	case consoleTickMsg:
		// Redraw so rates stay current
		return m, consoleTickCmd()

	case exchangeDoneMsg:
		m.busy = false
		r := msg.record
		m.addEntry(consoleEntry{
			timestamp: r.Time,
			record:    &r,
			message:   describeReply(r),
			isError:   r.Err != nil,
		})
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consoleModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		return m.submit()

	case tea.KeyUp:
		if len(m.history) > 0 && m.historyIdx > 0 {
			m.historyIdx--
			m.input.SetValue(m.history[m.historyIdx])
			m.input.CursorEnd()
		}
		return m, nil

	case tea.KeyDown:
		if m.historyIdx < len(m.history)-1 {
			m.historyIdx++
			m.input.SetValue(m.history[m.historyIdx])
			m.input.CursorEnd()
		} else {
			m.historyIdx = len(m.history)
			m.input.SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit parses the typed command and starts its exchange
func (m consoleModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy {
		return m, nil
	}

	m.history = append(m.history, text)
	m.historyIdx = len(m.history)
	m.input.SetValue("")

	c, err := lx200.ParseCommand(text)
	if err != nil {
		m.addEntry(consoleEntry{timestamp: time.Now(), message: err.Error(), isError: true})
		return m, nil
	}

	m.busy = true
	session := m.session
	return m, func() tea.Msg {
		return exchangeDoneMsg{record: session.exchange(c)}
	}
}

func (m *consoleModel) addEntry(e consoleEntry) {
	m.log = append(m.log, e)
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

// describeReply decodes replies to the common coordinate and time queries
func describeReply(r lx200.Record) string {
	if r.Err != nil || len(r.Command) < 3 || r.Command[0] != lx200.FrameStandard || r.Command[1] != 'G' {
		return ""
	}
	reply := strings.TrimSuffix(string(r.Response), "#")

	switch r.Command[2] {
	case 'R', 'r', 'L', 'S':
		if v, err := lx200.ParseHMS(reply); err == nil {
			return fmt.Sprintf("%.6f h", v)
		}
	case 'D', 'd', 't':
		if v, err := lx200.ParseDMS(reply, true); err == nil {
			return fmt.Sprintf("%.6f deg", v)
		}
	case 'Z', 'g':
		if v, err := lx200.ParseDMS(reply, false); err == nil {
			return fmt.Sprintf("%.6f deg", v)
		}
	}
	return ""
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m consoleModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	s.WriteString(titleStyle.Render("MERIDIAN CONSOLE"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | Enter=send Up/Down=history Esc=quit", m.connInfo)))
	s.WriteString("\n\n")

	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(m.renderLog(statsLabelStyle, headerStyle, statsValueStyle, warningStyle, errorStyle, boxStyle))
	s.WriteString("\n")

	prompt := m.input.View()
	if m.busy {
		prompt = warningStyle.Render("waiting for reply...")
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(prompt))
	s.WriteString("\n")

	return s.String()
}

func (m consoleModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	st := m.session.stats.Snapshot()

	errorValue := statsValueStyle.Render("0")
	if n := st.Errors(); n > 0 {
		errorValue = errorStyle.Render(fmt.Sprintf("%d", n))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Exchanges:"), statsValueStyle.Render(fmt.Sprintf("%d", st.TotalExchanges)),
		statsLabelStyle.Render("OK:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Succeeded)),
		statsLabelStyle.Render("Errors:"), errorValue,
		statsLabelStyle.Render("Avg:"), statsValueStyle.Render(st.AverageLatency.Round(time.Millisecond).String()),
		statsLabelStyle.Render("Timeout:"), statsValueStyle.Render(m.session.t.Timeout().String()),
	)
	return boxStyle.Width(m.width - 4).Render(content)
}

func (m consoleModel) renderLog(statsLabelStyle, headerStyle, valueStyle, warningStyle, errorStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EXCHANGES"))
	s.WriteString("\n")

	// Leave room for header, statistics and input boxes
	logHeight := max(m.height-14, 3)

	if len(m.log) == 0 {
		s.WriteString(headerStyle.Render("  (type a command, e.g. :GR#)"))
		return boxStyle.Width(m.width - 4).Render(s.String())
	}

	startIdx := max(len(m.log)-logHeight, 0)
	for i := startIdx; i < len(m.log); i++ {
		entry := m.log[i]
		timestamp := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))

		if entry.record == nil {
			s.WriteString(fmt.Sprintf("%s %s %s\n", timestamp, errorStyle.Render("x"), entry.message))
			continue
		}

		r := entry.record
		line := fmt.Sprintf("%s %-12s %-5s %6s ", timestamp, lx200.FormatBytes(r.Command), r.Shape,
			r.Elapsed.Round(time.Millisecond))
		switch {
		case r.Err != nil:
			if len(r.Response) > 0 {
				line += warningStyle.Render(lx200.FormatBytes(r.Response)) + " "
			}
			line += errorStyle.Render(r.Err.Error())
		case r.Shape == lx200.ShapeNone:
			line += headerStyle.Render("(no reply)")
		default:
			line += valueStyle.Render(lx200.FormatBytes(r.Response))
		}
		if entry.message != "" {
			line += " " + headerStyle.Render("= "+entry.message)
		}
		s.WriteString(line + "\n")
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

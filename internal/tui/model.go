// Package tui is a terminal preview player for a session.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/storyboard/internal/engine"
)

// seekStep is how far the arrow keys move the playhead, as a ratio
const seekStep = 0.05

const barWidth = 40

type frameMsg time.Time

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	captionStyle = lipgloss.NewStyle().Italic(true).Padding(1, 2).Border(lipgloss.RoundedBorder())
	filledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
	fadeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Model drives a session from key presses and frame ticks
type Model struct {
	session *engine.Session
	fps     int
	status  engine.Status
	last    time.Time
	err     error
}

func New(session *engine.Session, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	return Model{session: session, fps: fps, status: session.Status()}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		now := time.Time(msg)
		delta := 0.0
		if !m.last.IsZero() {
			delta = now.Sub(m.last).Seconds()
		}
		m.last = now
		m.status = m.session.Tick(delta)
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeySpace:
			m.session.Toggle()
		case tea.KeyLeft:
			m.status = m.session.Seek(m.status.Ratio - seekStep)
		case tea.KeyRight:
			m.status = m.session.Seek(m.status.Ratio + seekStep)
		case tea.KeyHome:
			m.status = m.session.Seek(0)
		case tea.KeyEnd:
			m.status = m.session.Seek(1)
		case tea.KeyRunes:
			m.handleRune(msg.Runes)
			if m.quit(msg.Runes) {
				return m, tea.Quit
			}
		}
		m.status = m.session.Status()
	}
	return m, nil
}

func (m Model) quit(runes []rune) bool {
	return len(runes) == 1 && runes[0] == 'q'
}

func (m *Model) handleRune(runes []rune) {
	if len(runes) != 1 {
		return
	}
	r := runes[0]
	if r < '1' || r > '9' {
		return
	}
	_, m.err = m.session.SelectScene(int(r - '1'))
}

func (m Model) Status() engine.Status { return m.status }

func (m Model) View() string {
	st := m.status
	var b strings.Builder

	b.WriteString(titleStyle.Render("Storyboard preview"))
	b.WriteString("\n\n")

	state := "⏸"
	if st.Playing {
		state = "▶"
	}
	fmt.Fprintf(&b, "%s  %s  %5.2fs / %5.2fs\n", state, st.Label(), st.Elapsed, st.Total)
	b.WriteString(progressBar(st.Ratio, barWidth))
	b.WriteString("\n")

	if w := st.Transition; w != nil {
		b.WriteString(fadeStyle.Render(fmt.Sprintf("%s %d→%d %3.0f%%", w.Kind, w.From+1, w.To+1, w.Phase*100)))
		b.WriteString("\n")
	}
	if st.Caption != "" {
		b.WriteString(captionStyle.Render(st.Caption))
		b.WriteString("\n")
	}
	if m.err != nil {
		fmt.Fprintf(&b, "[!] %v\n", m.err)
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space play/pause · ←/→ seek · 1-9 scene · q quit"))
	return b.String()
}

func progressBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled))
}

// Run starts the player in the alternate screen and blocks until it quits
func Run(session *engine.Session, fps int) error {
	_, err := tea.NewProgram(New(session, fps), tea.WithAltScreen()).Run()
	return err
}

package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/wflens/pkg/logstore"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// SessionListModel - Interactive session selection
// =============================================================================

// SessionListModel is the bubbletea model for picking a session. Sessions
// are listed newest first, as the store returns them.
type SessionListModel struct {
	Sessions []logstore.SessionInfo
	Cursor   int
	Offset   int
	Height   int
	// Selected is set when the user confirms a session.
	Selected *logstore.SessionInfo
	now      func() time.Time
}

// NewSessionListModel creates a new session list model.
func NewSessionListModel(sessions []logstore.SessionInfo) SessionListModel {
	return SessionListModel{Sessions: sessions, Height: 15, now: time.Now}
}

func (m SessionListModel) Init() tea.Cmd {
	return nil
}

func (m SessionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Sessions)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Sessions) == 0 {
				return m, nil
			}
			s := m.Sessions[m.Cursor]
			m.Selected = &s
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m SessionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Session"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Sessions) == 0 {
		b.WriteString(listDimStyle.Render("  no sessions"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Sessions))
	now := time.Now
	if m.now != nil {
		now = m.now
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		s := m.Sessions[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, s.ID, fmt.Sprint(s.NumLogEntries), formatRelativeTime(s.Started(), now())})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Session", "Entries", "Started").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Sessions))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() || t.Unix() == 0 {
		return "—"
	}
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006 15:04")
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

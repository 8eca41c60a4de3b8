package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"neurabot/internal/session"
)

// View renders the chat screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting NeuraBot..."
	}

	content := m.viewport.View()
	if m.showSidebar {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), content)
	}

	return strings.Join([]string{
		m.renderHeader(),
		content,
		m.renderStatus(),
		m.styles.RenderDivider(m.width),
		m.renderInput(),
		m.renderFooter(),
	}, "\n")
}

func (m *Model) renderHeader() string {
	title := session.DefaultTitle
	if sess := m.store.Active(); sess != nil {
		title = sess.Title
	}
	left := m.styles.Header.Render("NeuraBot")
	right := m.styles.Muted.Render(fmt.Sprintf("%s · mode: %s", title, m.mode))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderStatus shows the confirmation prompt or transient notice row.
func (m *Model) renderStatus() string {
	switch {
	case m.confirm != nil:
		return m.styles.Error.Render(m.confirm.prompt)
	case m.notice != "":
		return m.styles.Banner.Render(m.notice)
	default:
		return ""
	}
}

func (m *Model) renderInput() string {
	prompt := m.styles.Title.Render("> ")
	if m.isLoading {
		prompt = m.spin.View() + " "
	}
	if m.listening {
		prompt = m.styles.Success.Render("🎤 ")
	}
	return prompt + m.input.View()
}

func (m *Model) renderFooter() string {
	hints := []string{"enter send", "tab sessions", "/help commands", "esc quit"}
	if m.voiceEnabled {
		hints = append(hints, "/voice speak")
	}
	return m.styles.Footer.Render(strings.Join(hints, " · "))
}

func (m *Model) renderSidebar() string {
	sessions := m.store.Sorted()
	activeID := m.store.ActiveID()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Sessions"))
	b.WriteString("\n\n")

	for i, sess := range sessions {
		marker := "  "
		if i == m.sidebarIndex {
			marker = "> "
		}
		title := sess.Title
		if len([]rune(title)) > sidebarWidth-6 {
			title = string([]rune(title)[:sidebarWidth-6]) + "…"
		}
		line := marker + title
		if sess.ID == activeID {
			line = m.styles.SessionActive.Render(line + " •")
		} else {
			line = m.styles.SessionItem.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("enter open · d delete"))

	return m.styles.Sidebar.
		Width(sidebarWidth - 1).
		Height(m.viewport.Height).
		Render(b.String())
}

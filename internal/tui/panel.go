package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/grinbergai/internal/history"
)

// panelWidth is the width of the conversations side panel
const panelWidth = 34

// loadConversations returns a command that lists entries for the side panel
func (m Model) loadConversations() tea.Cmd {
	if m.conversations == nil {
		return nil
	}
	list := m.conversations
	return func() tea.Msg {
		entries, err := list.List()
		return conversationsLoadedMsg{entries: entries, err: err}
	}
}

// createConversation returns a command that creates an empty entry
func (m Model) createConversation() tea.Cmd {
	if m.conversations == nil {
		return nil
	}
	list := m.conversations
	return func() tea.Msg {
		entry, err := list.Create("")
		return conversationCreatedMsg{entry: entry, err: err}
	}
}

// updatePanel handles keys while the side panel has focus
func (m Model) updatePanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancelInFlight()
		return m, tea.Quit

	case "esc", "q", "ctrl+o":
		m.showPanel = false
		m.resize()

	case "up", "k":
		if n := len(m.panelEntries); n > 0 {
			m.panelCursor = (m.panelCursor - 1 + n) % n
		}

	case "down", "j":
		if n := len(m.panelEntries); n > 0 {
			m.panelCursor = (m.panelCursor + 1) % n
		}

	case "n":
		return m, m.createConversation()
	}

	return m, nil
}

func (m Model) currentConversationID() string {
	if m.target == nil {
		return ""
	}
	return m.target.ID()
}

// renderPanel renders the conversations side panel
func (m Model) renderPanel(width, height int) string {
	inner := width - 4
	title := panelTitleStyle.Render("Conversaciones")

	var items []string
	switch {
	case m.conversations == nil:
		items = append(items, hintStyle.Render("Historial no disponible"))
	case m.panelErr != nil:
		items = append(items, errorDetailStyle.Render(history.Truncate(m.panelErr.Error(), inner)))
	case len(m.panelEntries) == 0:
		items = append(items, hintStyle.Render("Sin conversaciones guardadas"))
	default:
		maxItems := max(3, (height-8)/2)
		offset := 0
		if m.panelCursor >= maxItems {
			offset = m.panelCursor - maxItems + 1
		}
		end := min(offset+maxItems, len(m.panelEntries))

		if offset > 0 {
			items = append(items, hintStyle.Render("  ..."))
		}
		for i := offset; i < end; i++ {
			items = append(items, m.renderPanelItem(i, m.panelEntries[i], inner))
		}
		if end < len(m.panelEntries) {
			items = append(items, hintStyle.Render("  ..."))
		}
	}

	footer := fmt.Sprintf("%s%s  %s%s",
		statusKeyStyle.Render("n"), statusDescStyle.Render(" Nueva"),
		statusKeyStyle.Render("esc"), statusDescStyle.Render(" Cerrar"),
	)

	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, items...)...)
	content := lipgloss.JoinVertical(lipgloss.Left, body, "", footer)

	style := panelStyle.Width(width - 2)
	if height > 2 {
		style = style.Height(height - 2)
	}
	return style.Render(content)
}

func (m Model) renderPanelItem(index int, entry *history.Entry, width int) string {
	cursor := "  "
	style := panelItemStyle
	if index == m.panelCursor {
		cursor = panelCursorStyle.Render("▸ ")
		style = panelSelectedStyle
	}

	marker := ""
	if entry.ID == m.currentConversationID() {
		marker = panelCurrentStyle.Render(" ●")
	}

	title := style.Render(history.Truncate(entry.Title, width-4)) + marker

	preview := entry.LastMessage
	if strings.TrimSpace(preview) == "" {
		preview = history.FormatRelativeTime(entry.UpdatedAt)
	} else {
		preview = history.Truncate(preview, width-12) + " · " + history.FormatRelativeTime(entry.UpdatedAt)
	}

	return cursor + title + "\n  " + panelPreviewStyle.Render(history.Truncate(preview, width-2))
}

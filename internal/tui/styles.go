// Package tui provides the terminal chat interface for grinbergai.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/grinbergai/internal/errors"
	"github.com/diogo/grinbergai/internal/render"
)

// Color variables (updated from theme)
var (
	// Base colors
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	// Accent colors
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color

	// Text colors
	colorText     lipgloss.Color
	colorTextDim  lipgloss.Color
	colorTextMute lipgloss.Color

	// Chat bubble colors
	colorUserBubble      lipgloss.Color
	colorUserText        lipgloss.Color
	colorAssistantBubble lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	// Header panel: title, persona subtitle and hints
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	// Messages area and the two bubble kinds
	messagesAreaStyle    lipgloss.Style
	userBubbleStyle      lipgloss.Style
	userLabelStyle       lipgloss.Style
	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style

	// Input area and the thinking animation
	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	// Status bar shortcuts and transient notices
	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style
	noticeStyle     lipgloss.Style

	// Error panel
	errorStyle       lipgloss.Style
	errorDetailStyle lipgloss.Style

	// Welcome screen shown before the first message
	welcomeStyle      lipgloss.Style
	welcomeTitleStyle lipgloss.Style
	welcomeIconStyle  lipgloss.Style

	// Conversations side panel
	panelStyle         lipgloss.Style
	panelTitleStyle    lipgloss.Style
	panelItemStyle     lipgloss.Style
	panelSelectedStyle lipgloss.Style
	panelCurrentStyle  lipgloss.Style
	panelPreviewStyle  lipgloss.Style
	panelCursorStyle   lipgloss.Style
)

// Gradient colors for the loading animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#6366f1"),
	lipgloss.Color("#8b5cf6"),
	lipgloss.Color("#a855f7"),
	lipgloss.Color("#d946ef"),
	lipgloss.Color("#ec4899"),
	lipgloss.Color("#818cf8"),
}

func init() {
	UpdateTheme(render.DarkTheme.Name)
}

// UpdateTheme refreshes all styles for the named UI theme
func UpdateTheme(name string) {
	theme := render.ThemeFor(name)

	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute
	colorUserBubble = theme.UserBubble
	colorUserText = theme.UserText
	colorAssistantBubble = theme.AssistantBubble

	rebuildStyles()
}

// rebuildStyles recreates every style from the current colors
func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	// User bubbles sit on the right in the accent color
	userBubbleStyle = lipgloss.NewStyle().
		Background(colorUserBubble).
		Foreground(colorUserText).
		Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Foreground(colorText).
		Padding(0, 1)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	noticeStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Italic(true)

	errorStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Foreground(colorError).
		Padding(0, 1)

	errorDetailStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	welcomeStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Align(lipgloss.Center)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true).
		Align(lipgloss.Center)

	welcomeIconStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Background(colorSurface).
		Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true).
		MarginBottom(1)

	panelItemStyle = lipgloss.NewStyle().
		Foreground(colorText)

	panelSelectedStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	panelCurrentStyle = lipgloss.NewStyle().
		Foreground(colorSecondary)

	panelPreviewStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	panelCursorStyle = lipgloss.NewStyle().
		Foreground(colorAccent)
}

// FormatError returns a styled error message for printing outside the TUI.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render("✗ " + apierrors.UserMessage(err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  %v", err)))

	switch {
	case apierrors.IsConfigError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Set OPENAI_API_KEY and ASSISTANT_ID in the environment or a .env file"))
	case apierrors.IsAuthError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that OPENAI_API_KEY is valid and has access to the assistant"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
	case apierrors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Raise run_timeout with 'grinbergai config set run_timeout_seconds 300'"))
	}

	return sb.String()
}

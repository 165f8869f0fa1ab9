package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/grinbergai/internal/config"
)

// TUITheme defines the color scheme for the TUI interface
type TUITheme struct {
	Name string

	// Base colors
	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	// Text colors
	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color

	// Chat bubbles
	UserBubble      lipgloss.Color
	UserText        lipgloss.Color
	AssistantBubble lipgloss.Color
}

// Built-in TUI themes
var (
	// DarkTheme mirrors the original dark page: slate surfaces, indigo accents
	DarkTheme = TUITheme{
		Name: config.ThemeDark,

		Background: lipgloss.Color("#0f172a"),
		Surface:    lipgloss.Color("#1e293b"),
		Border:     lipgloss.Color("#334155"),

		Primary:   lipgloss.Color("#818cf8"),
		Secondary: lipgloss.Color("#34d399"),
		Accent:    lipgloss.Color("#c084fc"),
		Warning:   lipgloss.Color("#fbbf24"),
		Error:     lipgloss.Color("#f87171"),

		Text:     lipgloss.Color("#e2e8f0"),
		TextDim:  lipgloss.Color("#94a3b8"),
		TextMute: lipgloss.Color("#475569"),

		UserBubble:      lipgloss.Color("#4f46e5"),
		UserText:        lipgloss.Color("#ffffff"),
		AssistantBubble: lipgloss.Color("#1e293b"),
	}

	// LightTheme is the same layout on white and gray-100 surfaces
	LightTheme = TUITheme{
		Name: config.ThemeLight,

		Background: lipgloss.Color("#ffffff"),
		Surface:    lipgloss.Color("#f3f4f6"),
		Border:     lipgloss.Color("#d1d5db"),

		Primary:   lipgloss.Color("#4f46e5"),
		Secondary: lipgloss.Color("#059669"),
		Accent:    lipgloss.Color("#9333ea"),
		Warning:   lipgloss.Color("#b45309"),
		Error:     lipgloss.Color("#dc2626"),

		Text:     lipgloss.Color("#111827"),
		TextDim:  lipgloss.Color("#4b5563"),
		TextMute: lipgloss.Color("#9ca3af"),

		UserBubble:      lipgloss.Color("#4f46e5"),
		UserText:        lipgloss.Color("#ffffff"),
		AssistantBubble: lipgloss.Color("#f3f4f6"),
	}
)

// ThemeFor returns the palette for a UI theme name. Unknown names get the
// dark palette.
func ThemeFor(name string) TUITheme {
	if name == config.ThemeLight {
		return LightTheme
	}
	return DarkTheme
}

// AvailableTUIThemes returns all TUI palettes
func AvailableTUIThemes() []TUITheme {
	return []TUITheme{DarkTheme, LightTheme}
}

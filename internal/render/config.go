package render

import (
	"os"

	"github.com/diogo/grinbergai/internal/config"
)

// OptionsFromConfig builds render options for theme from the user settings.
// GLAMOUR_STYLE overrides the style.
func OptionsFromConfig(cfg config.Config, theme string) Options {
	opts := DefaultOptions()

	md := cfg.Markdown
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks
	opts.Style = StyleFor(theme)

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}

	return opts
}

// StyleFor maps a UI theme to its markdown style.
func StyleFor(theme string) string {
	if theme == config.ThemeLight {
		return StyleLight
	}
	return StyleDark
}

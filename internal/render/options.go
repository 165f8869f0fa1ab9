// Package render turns assistant replies into styled terminal output.
package render

// Markdown styles, matching the two UI themes
const (
	StyleDark  = "dark"
	StyleLight = "light"
)

const defaultWidth = 80

// Options selects a glamour renderer. Equal Options share a renderer pool,
// so the struct must stay comparable.
type Options struct {
	Width            int    // word wrap column
	Style            string // StyleDark, StyleLight or a glamour JSON style path
	EnableEmoji      bool   // :emoji: shortcodes become unicode
	PreserveNewLines bool
	TableWrap        bool // wrap long table cells instead of truncating
	InlineTableLinks bool
}

// DefaultOptions suits a reply read in a dark terminal at 80 columns.
func DefaultOptions() Options {
	return Options{
		Width:            defaultWidth,
		Style:            StyleDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth sets the wrap column. Non-positive widths keep the default.
func (o Options) WithWidth(width int) Options {
	if width <= 0 {
		width = defaultWidth
	}
	o.Width = width
	return o
}

func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}

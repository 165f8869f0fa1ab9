package render

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	tr, err := cache.acquire(opts)
	if err != nil {
		return "", err
	}
	defer cache.release(opts, tr)

	return tr.Render(content)
}

// MarkdownOrPlain renders content, falling back to the raw text on error.
func MarkdownOrPlain(content string, opts Options) string {
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return out
}

package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// renderers holds one sync.Pool per option set. Options is comparable, so
// it keys the map directly. A glamour.TermRenderer is not safe for
// concurrent use, which is why renderers are pooled rather than shared.
type renderers struct {
	mu    sync.RWMutex
	pools map[Options]*sync.Pool
}

var cache = &renderers{
	pools: make(map[Options]*sync.Pool),
}

func (r *renderers) pool(opts Options) *sync.Pool {
	r.mu.RLock()
	p, ok := r.pools[opts]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[opts]; ok {
		return p
	}

	// New returns nil on failure; acquire then surfaces the error
	p = &sync.Pool{
		New: func() any {
			tr, err := newRenderer(opts)
			if err != nil {
				return nil
			}
			return tr
		},
	}
	r.pools[opts] = p
	return p
}

func (r *renderers) acquire(opts Options) (*glamour.TermRenderer, error) {
	if tr, ok := r.pool(opts).Get().(*glamour.TermRenderer); ok && tr != nil {
		return tr, nil
	}
	return newRenderer(opts)
}

func (r *renderers) release(opts Options, tr *glamour.TermRenderer) {
	if tr != nil {
		r.pool(opts).Put(tr)
	}
}

// newRenderer builds a renderer. The two theme styles are glamour's
// built-in dark and light; anything else is read as a JSON style path.
func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	style := glamour.WithStylePath(opts.Style)
	if opts.Style == StyleDark || opts.Style == StyleLight {
		style = glamour.WithStandardStyle(opts.Style)
	}

	ropts := []glamour.TermRendererOption{
		style,
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(ropts...)
}

// ClearCache drops every pooled renderer.
func ClearCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.pools = make(map[Options]*sync.Pool)
}

// CacheSize returns the number of distinct option sets seen since the last clear.
func CacheSize() int {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return len(cache.pools)
}

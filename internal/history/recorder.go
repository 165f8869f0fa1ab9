package history

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Recorder writes finished turns into the current entry
type Recorder struct {
	store *Store
	mu    sync.RWMutex
	id    string
}

// Recorder returns a recorder bound to the entry with id
func (s *Store) Recorder(id string) *Recorder {
	return &Recorder{store: s, id: id}
}

// ID returns the entry the recorder writes to
func (r *Recorder) ID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id
}

// SetID points the recorder at another entry
func (r *Recorder) SetID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id = id
}

// Store returns the store the recorder writes into
func (r *Recorder) Store() *Store {
	return r.store
}

// RecordTurn stores the question and the reply preview
func (r *Recorder) RecordTurn(question, reply string) error {
	return r.store.Update(r.ID(), question, reply)
}

// Truncate shortens s to max runes on a single line, adding "..." when cut.
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// FormatRelativeTime formats t relative to now, e.g. "hace 2 h" or "ayer".
func FormatRelativeTime(t time.Time) string {
	return formatRelative(t, time.Now())
}

func formatRelative(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "ahora"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		return fmt.Sprintf("hace %d min", mins)
	case diff < 24*time.Hour:
		return fmt.Sprintf("hace %d h", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "ayer"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("hace %d días", int(diff.Hours()/24))
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "hace 1 semana"
		}
		return fmt.Sprintf("hace %d semanas", weeks)
	default:
		return t.Format("02/01/2006")
	}
}

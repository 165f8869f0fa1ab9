package history

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolver resolves user-friendly references to conversation IDs
type Resolver struct {
	store *Store
}

// NewResolver creates a new reference resolver
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve converts a user-friendly reference to a conversation ID
//
// Supported references:
//   - "@last" - most recently updated conversation
//   - "@first" - oldest conversation in the list
//   - "1", "2", "3" - by index (1-based, most recent first)
//   - an ID or a unique ID prefix of at least 4 characters
//   - "substring" - match on title (error if multiple matches)
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	entries, err := r.store.List()
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no conversations found")
	}

	switch strings.ToLower(ref) {
	case "@last":
		return entries[0].ID, nil
	case "@first":
		return entries[len(entries)-1].ID, nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(entries) {
			return "", fmt.Errorf("index %d out of range (1-%d)", index, len(entries))
		}
		return entries[index-1].ID, nil
	}

	if len(ref) >= 4 {
		var byID []*Entry
		for _, e := range entries {
			if e.ID == ref {
				return e.ID, nil
			}
			if strings.HasPrefix(e.ID, ref) {
				byID = append(byID, e)
			}
		}
		if len(byID) == 1 {
			return byID[0].ID, nil
		}
	}

	refLower := strings.ToLower(ref)
	var matches []*Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), refLower) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no conversation matching '%s'", ref)
	case 1:
		return matches[0].ID, nil
	default:
		var titles []string
		for _, m := range matches {
			titles = append(titles, fmt.Sprintf("'%s'", m.Title))
		}
		return "", fmt.Errorf("multiple conversations match '%s': %s. Use ID or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

// ListAliases returns information about supported references
func ListAliases() string {
	return `Supported references:
  @last          Most recently updated conversation
  @first         Oldest conversation
  1, 2, 3        By index (1-based, from most recent)
  "text"         Search by title substring
  <id>           Conversation ID or a unique prefix`
}

// Package history persists the list of conversations shown in the side panel.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diogo/grinbergai/internal/config"
)

const (
	fileName = "conversations.json"
	// DefaultTitle is used until the first question names the entry
	DefaultTitle = "Nueva conversación"
)

// ErrNotFound is returned for an unknown conversation ID
var ErrNotFound = errors.New("conversation not found")

// Entry is one conversation in the side panel
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type fileData struct {
	Conversations []*Entry `json:"conversations"`
}

// Store manages the conversations file
type Store struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewStore creates a store keeping its file in baseDir
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &Store{
		path: filepath.Join(baseDir, fileName),
		now:  time.Now,
	}, nil
}

// DefaultStore creates a store in the config directory
func DefaultStore() (*Store, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir)
}

// Path returns the file backing the store
func (s *Store) Path() string {
	return s.path
}

// Create adds a new entry. An empty title uses DefaultTitle.
func (s *Store) Create(title string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = DefaultTitle
	}
	now := s.now()
	entry := &Entry{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	data.Conversations = append(data.Conversations, entry)

	if err := s.save(data); err != nil {
		return nil, err
	}
	copied := *entry
	return &copied, nil
}

// Get returns the entry with id
func (s *Store) Get(id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	entry, _ := find(data, id)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := *entry
	return &copied, nil
}

// List returns all entries, most recently updated first
func (s *Store) List() ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, len(data.Conversations))
	for i, e := range data.Conversations {
		copied := *e
		entries[i] = &copied
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

// Latest returns the most recently updated entry, creating one when the
// store is empty.
func (s *Store) Latest() (*Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries[0], nil
	}
	return s.Create("")
}

// Update records a finished turn on the entry. The first question becomes
// the title while the entry still has the default one.
func (s *Store) Update(id, question, reply string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	entry, _ := find(data, id)
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if entry.Title == DefaultTitle && question != "" {
		entry.Title = Truncate(question, 50)
	}
	entry.LastMessage = Truncate(reply, 80)
	entry.UpdatedAt = s.now()

	return s.save(data)
}

// Delete removes an entry
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	_, idx := find(data, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data.Conversations = append(data.Conversations[:idx], data.Conversations[idx+1:]...)

	return s.save(data)
}

// ClearAll removes every entry
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(&fileData{Conversations: []*Entry{}})
}

func find(data *fileData, id string) (*Entry, int) {
	for i, e := range data.Conversations {
		if e.ID == id {
			return e, i
		}
	}
	return nil, -1
}

func (s *Store) load() (*fileData, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileData{Conversations: []*Entry{}}, nil
		}
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse conversations: %w", err)
	}
	if data.Conversations == nil {
		data.Conversations = []*Entry{}
	}
	return &data, nil
}

func (s *Store) save(data *fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversations: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write conversations: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write conversations: %w", err)
	}
	return nil
}

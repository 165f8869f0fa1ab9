// Package chat holds the conversation state and drives one request/response
// turn against the assistant service.
package chat

import (
	"sync"

	apierrors "github.com/diogo/grinbergai/internal/errors"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is a snapshot of the conversation
type State struct {
	Messages  []Message
	IsLoading bool
	Err       error
}

// ErrorText returns the user-facing error, or "" when there is none.
func (s State) ErrorText() string {
	return apierrors.UserMessage(s.Err)
}

// Store is the single owner of the conversation state.
// Every reset bumps the generation so a turn started before the reset
// cannot write into the new conversation.
type Store struct {
	mu         sync.RWMutex
	messages   []Message
	loading    bool
	err        error
	generation uint64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{messages: []Message{}}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	return State{Messages: msgs, IsLoading: s.loading, Err: s.err}
}

// Messages returns a copy of the conversation
func (s *Store) Messages() []Message {
	return s.Snapshot().Messages
}

// Len returns the number of messages
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// LastAssistant returns the most recent assistant message.
func (s *Store) LastAssistant() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleAssistant {
			return s.messages[i], true
		}
	}
	return Message{}, false
}

// Append adds a message to the end of the conversation
func (s *Store) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// SetLoading sets the loading flag
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// SetError records err and clears the loading flag
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.loading = false
}

// Reset empties the conversation, clears loading and error
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []Message{}
	s.loading = false
	s.err = nil
	s.generation++
}

// beginTurn appends the user message, sets loading and clears the previous
// error in one step. It returns the generation the turn belongs to.
func (s *Store) beginTurn(user Message) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, user)
	s.loading = true
	s.err = nil
	return s.generation
}

// completeTurn appends reply (if any) and clears loading. It reports false
// when the store was reset after the turn began.
func (s *Store) completeTurn(gen uint64, reply *Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	if reply != nil {
		s.messages = append(s.messages, *reply)
	}
	s.loading = false
	return true
}

// failTurn records err and clears loading. The user message stays.
func (s *Store) failTurn(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.err = err
	s.loading = false
	return true
}

// Package assistant talks to the hosted Assistants API: threads, messages and runs.
package assistant

import "context"

// RunStatus is the lifecycle state of a run
type RunStatus string

// Run statuses reported by the service
const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// Pending reports whether the run is still being worked on.
func (s RunStatus) Pending() bool {
	return s == RunStatusQueued || s == RunStatusInProgress
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content part types
const (
	ContentText      = "text"
	ContentImageFile = "image_file"
	ContentImageURL  = "image_url"
)

// Thread is a remote conversation context
type Thread struct {
	ID string
}

// Run is one execution of the assistant against a thread
type Run struct {
	ID          string
	ThreadID    string
	AssistantID string
	Status      RunStatus
	// LastErrorCode and LastErrorMessage are set when Status is failed.
	LastErrorCode    string
	LastErrorMessage string
}

// ContentPart is one block of a thread message
type ContentPart struct {
	Type string
	Text string
}

// ThreadMessage is a message stored on a thread
type ThreadMessage struct {
	ID    string
	Role  string
	RunID string
	Parts []ContentPart
}

// IsText reports whether the part carries text
func (p ContentPart) IsText() bool {
	return p.Type == ContentText
}

// FirstPart returns the leading content part, or false for an empty message.
func (m ThreadMessage) FirstPart() (ContentPart, bool) {
	if len(m.Parts) == 0 {
		return ContentPart{}, false
	}
	return m.Parts[0], true
}

// Service is the subset of the Assistants API a chat turn needs.
// ListMessages returns newest first.
type Service interface {
	CreateThread(ctx context.Context) (Thread, error)
	CreateMessage(ctx context.Context, threadID, role, content string) (ThreadMessage, error)
	CreateRun(ctx context.Context, threadID string) (Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (Run, error)
	CancelRun(ctx context.Context, threadID, runID string) (Run, error)
	ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error)
}

package assistant

import (
	"context"
	"sync"
)

// MockService is a scripted Service for tests
type MockService struct {
	mu sync.Mutex

	// Scripted values
	ThreadID string
	RunID    string
	// Statuses is returned by successive RetrieveRun calls; the last one repeats.
	Statuses         []RunStatus
	LastErrorCode    string
	LastErrorMessage string
	Messages         []ThreadMessage

	// Scripted failures
	CreateThreadErr  error
	CreateMessageErr error
	CreateRunErr     error
	RetrieveRunErr   error
	ListMessagesErr  error
	CancelRunErr     error

	// OnCreateThread runs before CreateThread returns.
	OnCreateThread func()

	// Recorders
	Calls        []string
	Posted       []string
	RetrieveHits int
	CancelCalled bool
}

// Ensure MockService implements Service
var _ Service = (*MockService)(nil)

// NewMockService returns a mock that completes after the given statuses and
// replies with text.
func NewMockService(text string, statuses ...RunStatus) *MockService {
	return &MockService{
		ThreadID: "thread_mock",
		RunID:    "run_mock",
		Statuses: statuses,
		Messages: []ThreadMessage{
			{ID: "msg_reply", Role: RoleAssistant, RunID: "run_mock", Parts: []ContentPart{{Type: ContentText, Text: text}}},
		},
	}
}

func (m *MockService) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// CallLog returns a copy of the recorded calls
func (m *MockService) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Calls))
	copy(out, m.Calls)
	return out
}

func (m *MockService) CreateThread(ctx context.Context) (Thread, error) {
	m.record("CreateThread")
	if m.OnCreateThread != nil {
		m.OnCreateThread()
	}
	if m.CreateThreadErr != nil {
		return Thread{}, m.CreateThreadErr
	}
	return Thread{ID: m.ThreadID}, nil
}

func (m *MockService) CreateMessage(ctx context.Context, threadID, role, content string) (ThreadMessage, error) {
	m.record("CreateMessage")
	if m.CreateMessageErr != nil {
		return ThreadMessage{}, m.CreateMessageErr
	}
	m.mu.Lock()
	m.Posted = append(m.Posted, content)
	m.mu.Unlock()
	return ThreadMessage{ID: "msg_user", Role: role, Parts: []ContentPart{{Type: ContentText, Text: content}}}, nil
}

func (m *MockService) CreateRun(ctx context.Context, threadID string) (Run, error) {
	m.record("CreateRun")
	if m.CreateRunErr != nil {
		return Run{}, m.CreateRunErr
	}
	return Run{ID: m.RunID, ThreadID: threadID, Status: RunStatusQueued}, nil
}

func (m *MockService) RetrieveRun(ctx context.Context, threadID, runID string) (Run, error) {
	m.record("RetrieveRun")
	if m.RetrieveRunErr != nil {
		return Run{}, m.RetrieveRunErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	status := RunStatusCompleted
	if len(m.Statuses) > 0 {
		idx := m.RetrieveHits
		if idx >= len(m.Statuses) {
			idx = len(m.Statuses) - 1
		}
		status = m.Statuses[idx]
	}
	m.RetrieveHits++

	run := Run{ID: runID, ThreadID: threadID, Status: status}
	if status == RunStatusFailed {
		run.LastErrorCode = m.LastErrorCode
		run.LastErrorMessage = m.LastErrorMessage
	}
	return run, nil
}

func (m *MockService) CancelRun(ctx context.Context, threadID, runID string) (Run, error) {
	m.record("CancelRun")
	m.mu.Lock()
	m.CancelCalled = true
	m.mu.Unlock()
	if m.CancelRunErr != nil {
		return Run{}, m.CancelRunErr
	}
	return Run{ID: runID, ThreadID: threadID, Status: RunStatusCancelling}, nil
}

func (m *MockService) ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error) {
	m.record("ListMessages")
	if m.ListMessagesErr != nil {
		return nil, m.ListMessagesErr
	}
	msgs := m.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// WasCancelled reports whether CancelRun was called
func (m *MockService) WasCancelled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CancelCalled
}

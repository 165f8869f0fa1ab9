package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diogo/grinbergai/internal/config"
	apierrors "github.com/diogo/grinbergai/internal/errors"
)

// fakeAPI serves the Assistants endpoints the client uses.
type fakeAPI struct {
	mu       sync.Mutex
	statuses []string
	hits     int
	paths    []string
	lastRun  map[string]any
	lastMsg  map[string]any
	query    string
	beta     string
	auth     string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/threads", func(w http.ResponseWriter, r *http.Request) {
		f.note(r)
		writeJSON(w, map[string]any{"id": "thread_1", "object": "thread"})
	})
	mux.HandleFunc("POST /v1/threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		f.note(r)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastMsg = body
		f.mu.Unlock()
		writeJSON(w, map[string]any{
			"id": "msg_user", "object": "thread.message", "role": body["role"],
			"content": []any{map[string]any{"type": "text", "text": map[string]any{"value": body["content"], "annotations": []any{}}}},
		})
	})
	mux.HandleFunc("POST /v1/threads/{thread}/runs", func(w http.ResponseWriter, r *http.Request) {
		f.note(r)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastRun = body
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "run_1", "object": "thread.run", "thread_id": r.PathValue("thread"), "status": "queued"})
	})
	mux.HandleFunc("GET /v1/threads/{thread}/runs/{run}", func(w http.ResponseWriter, r *http.Request) {
		f.note(r)
		f.mu.Lock()
		status := "completed"
		if f.hits < len(f.statuses) {
			status = f.statuses[f.hits]
		}
		f.hits++
		f.mu.Unlock()
		run := map[string]any{"id": r.PathValue("run"), "object": "thread.run", "thread_id": r.PathValue("thread"), "status": status}
		if status == "failed" {
			run["last_error"] = map[string]any{"code": "server_error", "message": "boom"}
		}
		writeJSON(w, run)
	})
	mux.HandleFunc("POST /v1/threads/{thread}/runs/{run}/cancel", func(w http.ResponseWriter, r *http.Request) {
		f.note(r)
		writeJSON(w, map[string]any{"id": r.PathValue("run"), "object": "thread.run", "status": "cancelling"})
	})
	mux.HandleFunc("GET /v1/threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		f.note(r)
		f.mu.Lock()
		f.query = r.URL.RawQuery
		f.mu.Unlock()
		writeJSON(w, map[string]any{
			"object": "list",
			"data": []any{
				map[string]any{
					"id": "msg_reply", "object": "thread.message", "role": "assistant", "run_id": "run_1",
					"content": []any{map[string]any{"type": "text", "text": map[string]any{"value": "Hola, ¿en qué puedo ayudarte?", "annotations": []any{}}}},
				},
				map[string]any{
					"id": "msg_user", "object": "thread.message", "role": "user",
					"content": []any{map[string]any{"type": "text", "text": map[string]any{"value": "hola", "annotations": []any{}}}},
				},
			},
			"has_more": false,
		})
	})

	return mux
}

func (f *fakeAPI) note(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	f.beta = r.Header.Get("OpenAI-Beta")
	f.auth = r.Header.Get("Authorization")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.Credentials{
		APIKey:      "sk-test",
		AssistantID: "asst_test",
		BaseURL:     srv.URL + "/v1",
	})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestNewClient_MissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds config.Credentials
		field string
	}{
		{"no key", config.Credentials{AssistantID: "asst"}, config.EnvAPIKey},
		{"no assistant", config.Credentials{APIKey: "sk"}, config.EnvAssistantID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.creds)
			if c != nil {
				t.Error("NewClient() returned a client for missing credentials")
			}
			var cfgErr *apierrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("NewClient() error = %v, want ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestNewClient_Proxy(t *testing.T) {
	creds := config.Credentials{APIKey: "sk", AssistantID: "asst"}

	tests := []struct {
		proxy   string
		wantErr bool
	}{
		{"", false},
		{"http://127.0.0.1:3128", false},
		{"socks5://127.0.0.1:1080", false},
		{"ftp://127.0.0.1:21", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		t.Run(tt.proxy, func(t *testing.T) {
			_, err := NewClient(creds, WithProxy(tt.proxy))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient(WithProxy(%q)) error = %v, wantErr %v", tt.proxy, err, tt.wantErr)
			}
			if err != nil && !apierrors.IsConfigError(err) {
				t.Errorf("proxy error should be a ConfigError, got %T", err)
			}
		})
	}
}

func TestNewClient_ConnectionSettings(t *testing.T) {
	creds := config.Credentials{
		APIKey:       "sk",
		AssistantID:  "asst",
		BaseURL:      "https://gateway.example/v1",
		Organization: "org_env",
		Proxy:        "socks5://127.0.0.1:1080",
	}

	tests := []struct {
		name      string
		opts      []ClientOption
		wantBase  string
		wantOrg   string
		wantProxy string
	}{
		{"from credentials", nil, "https://gateway.example/v1", "org_env", "socks5://127.0.0.1:1080"},
		{
			name:      "options override",
			opts:      []ClientOption{WithBaseURL("http://localhost:8080/v1"), WithOrganization("org_flag"), WithProxy("")},
			wantBase:  "http://localhost:8080/v1",
			wantOrg:   "org_flag",
			wantProxy: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(creds, tt.opts...)
			if err != nil {
				t.Fatalf("NewClient() error: %v", err)
			}
			if c.baseURL != tt.wantBase || c.orgID != tt.wantOrg || c.proxyURL != tt.wantProxy {
				t.Errorf("client = base %q org %q proxy %q", c.baseURL, c.orgID, c.proxyURL)
			}
			if c.AssistantID() != "asst" {
				t.Errorf("AssistantID() = %q", c.AssistantID())
			}
		})
	}
}

func TestClient_TurnEndpoints(t *testing.T) {
	api := &fakeAPI{statuses: []string{"queued", "in_progress", "completed"}}
	c := newTestClient(t, api.handler())
	ctx := context.Background()

	thread, err := c.CreateThread(ctx)
	if err != nil {
		t.Fatalf("CreateThread() error: %v", err)
	}
	if thread.ID != "thread_1" {
		t.Errorf("thread.ID = %s, want thread_1", thread.ID)
	}

	if _, err := c.CreateMessage(ctx, thread.ID, RoleUser, "hola"); err != nil {
		t.Fatalf("CreateMessage() error: %v", err)
	}

	run, err := c.CreateRun(ctx, thread.ID)
	if err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}
	if run.Status != RunStatusQueued {
		t.Errorf("run.Status = %s, want queued", run.Status)
	}

	var statuses []RunStatus
	for i := 0; i < 3; i++ {
		r, err := c.RetrieveRun(ctx, thread.ID, run.ID)
		if err != nil {
			t.Fatalf("RetrieveRun() error: %v", err)
		}
		statuses = append(statuses, r.Status)
	}
	want := []RunStatus{RunStatusQueued, RunStatusInProgress, RunStatusCompleted}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("status[%d] = %s, want %s", i, statuses[i], want[i])
		}
	}

	msgs, err := c.ListMessages(ctx, thread.ID, 1)
	if err != nil {
		t.Fatalf("ListMessages() error: %v", err)
	}
	if len(msgs) == 0 {
		t.Fatal("ListMessages() returned nothing")
	}
	part, ok := msgs[0].FirstPart()
	if !ok || !part.IsText() || part.Text != "Hola, ¿en qué puedo ayudarte?" {
		t.Errorf("first part = %+v, %v", part, ok)
	}
	if msgs[0].RunID != "run_1" {
		t.Errorf("RunID = %s, want run_1", msgs[0].RunID)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.lastRun["assistant_id"] != "asst_test" {
		t.Errorf("run assistant_id = %v, want asst_test", api.lastRun["assistant_id"])
	}
	if api.lastMsg["role"] != "user" || api.lastMsg["content"] != "hola" {
		t.Errorf("message body = %v", api.lastMsg)
	}
	if !strings.Contains(api.query, "order=desc") || !strings.Contains(api.query, "limit=1") {
		t.Errorf("list query = %s, want order=desc and limit=1", api.query)
	}
	if !strings.HasPrefix(api.beta, "assistants=") {
		t.Errorf("OpenAI-Beta header = %q", api.beta)
	}
	if api.auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", api.auth)
	}
}

func TestClient_RetrieveRun_LastError(t *testing.T) {
	api := &fakeAPI{statuses: []string{"failed"}}
	c := newTestClient(t, api.handler())

	run, err := c.RetrieveRun(context.Background(), "thread_1", "run_1")
	if err != nil {
		t.Fatalf("RetrieveRun() error: %v", err)
	}
	if run.Status != RunStatusFailed {
		t.Errorf("Status = %s, want failed", run.Status)
	}
	if run.LastErrorCode != "server_error" || run.LastErrorMessage != "boom" {
		t.Errorf("last error = %s/%s", run.LastErrorCode, run.LastErrorMessage)
	}
}

func TestClient_CancelRun(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api.handler())

	run, err := c.CancelRun(context.Background(), "thread_1", "run_9")
	if err != nil {
		t.Fatalf("CancelRun() error: %v", err)
	}
	if run.Status != RunStatusCancelling {
		t.Errorf("Status = %s, want cancelling", run.Status)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	last := api.paths[len(api.paths)-1]
	if last != "POST /v1/threads/thread_1/runs/run_9/cancel" {
		t.Errorf("last request = %s", last)
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			check:  apierrors.IsAuthError,
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error":{"message":"No assistant found","type":"invalid_request_error"}}`,
			check: func(err error) bool {
				return apierrors.GetHTTPStatus(err) == http.StatusNotFound && strings.Contains(err.Error(), "No assistant found")
			},
		},
		{
			name:   "gateway html",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			check: func(err error) bool {
				return apierrors.GetHTTPStatus(err) == http.StatusBadGateway
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := newTestClient(t, h)

			_, err := c.CreateThread(context.Background())
			if err == nil {
				t.Fatal("CreateThread() succeeded against an error response")
			}
			if !tt.check(err) {
				t.Errorf("unexpected classification: %T %v", err, err)
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(config.Credentials{APIKey: "sk", AssistantID: "asst", BaseURL: base + "/v1"},
		WithRequestTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	_, err = c.CreateThread(context.Background())
	if !apierrors.IsNetworkError(err) {
		t.Errorf("CreateThread() error = %v, want NetworkError", err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api.handler())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CreateThread(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("CreateThread() error = %v, want context.Canceled", err)
	}
}

func TestErrorMessageFromBody(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":{"message":"quota"}}`, "quota"},
		{`{"message":"flat"}`, "flat"},
		{`{"error":"plain"}`, "plain"},
		{`{"error":{"code":1}}`, ""},
		{`not json`, ""},
		{``, ""},
	}

	for _, tt := range tests {
		if got := errorMessageFromBody([]byte(tt.body)); got != tt.want {
			t.Errorf("errorMessageFromBody(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestRunStatus_Pending(t *testing.T) {
	pending := map[RunStatus]bool{
		RunStatusQueued:         true,
		RunStatusInProgress:     true,
		RunStatusCompleted:      false,
		RunStatusFailed:         false,
		RunStatusRequiresAction: false,
		RunStatusCancelled:      false,
		RunStatusExpired:        false,
	}
	for status, want := range pending {
		if got := status.Pending(); got != want {
			t.Errorf("%s.Pending() = %v, want %v", status, got, want)
		}
	}
}

func TestThreadMessage_FirstPart(t *testing.T) {
	tests := []struct {
		name     string
		msg      ThreadMessage
		wantOK   bool
		wantText bool
	}{
		{"text first", ThreadMessage{Parts: []ContentPart{{Type: ContentText, Text: "hi"}, {Type: ContentImageFile}}}, true, true},
		{"image first", ThreadMessage{Parts: []ContentPart{{Type: ContentImageFile}, {Type: ContentText, Text: "hi"}}}, true, false},
		{"empty", ThreadMessage{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, ok := tt.msg.FirstPart()
			if ok != tt.wantOK || part.IsText() != tt.wantText {
				t.Errorf("FirstPart() = %+v, %v", part, ok)
			}
		})
	}
}

package assistant

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/diogo/grinbergai/internal/config"
	apierrors "github.com/diogo/grinbergai/internal/errors"
	"github.com/diogo/grinbergai/internal/logging"
)

// Client is the go-openai backed implementation of Service
type Client struct {
	api         *openai.Client
	assistantID string
	logger      *zap.Logger

	baseURL  string
	orgID    string
	proxyURL string
	timeout  time.Duration
}

// Ensure Client implements Service
var _ Service = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithBaseURL points the client at an alternative API root
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithOrganization sets the OpenAI-Organization header
func WithOrganization(orgID string) ClientOption {
	return func(c *Client) {
		c.orgID = orgID
	}
}

// WithProxy routes requests through an http(s) or socks5 proxy
func WithProxy(rawURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = rawURL
	}
}

// WithRequestTimeout bounds each individual HTTP request
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient builds a client from credentials. Missing credentials produce a
// typed error instead of a half-initialized client.
func NewClient(creds config.Credentials, opts ...ClientOption) (*Client, error) {
	if creds.APIKey == "" {
		return nil, &apierrors.ConfigError{Field: config.EnvAPIKey, Message: "API key is not set"}
	}
	if creds.AssistantID == "" {
		return nil, &apierrors.ConfigError{Field: config.EnvAssistantID, Message: "assistant ID is not set"}
	}

	c := &Client{
		assistantID: creds.AssistantID,
		timeout:     60 * time.Second,
	}

	// Connection settings from the credentials apply first so explicit
	// options win.
	opts = append([]ClientOption{
		WithBaseURL(creds.BaseURL),
		WithOrganization(creds.Organization),
		WithProxy(creds.Proxy),
	}, opts...)
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)

	transport, err := newTransport(c.proxyURL)
	if err != nil {
		return nil, err
	}
	hc := &http.Client{Transport: transport, Timeout: c.timeout}

	cfg := openai.DefaultConfig(creds.APIKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.orgID != "" {
		cfg.OrgID = c.orgID
	}
	cfg.HTTPClient = hc

	c.api = openai.NewClientWithConfig(cfg)
	return c, nil
}

// AssistantID returns the assistant runs are started against
func (c *Client) AssistantID() string {
	return c.assistantID
}

// newTransport returns a transport honouring rawProxy, which may be empty.
func newTransport(rawProxy string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if rawProxy == "" {
		return transport, nil
	}

	u, err := url.Parse(rawProxy)
	if err != nil {
		return nil, &apierrors.ConfigError{Field: "proxy", Message: err.Error()}
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, &apierrors.ConfigError{Field: "proxy", Message: err.Error()}
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		return nil, &apierrors.ConfigError{Field: "proxy", Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	return transport, nil
}

// CreateThread creates an empty thread
func (c *Client) CreateThread(ctx context.Context) (Thread, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return Thread{}, classify(ctx, "threads.create", err)
	}
	c.logger.Debug("thread created", zap.String("thread_id", thread.ID))
	return Thread{ID: thread.ID}, nil
}

// CreateMessage appends a message to a thread
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (ThreadMessage, error) {
	msg, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    role,
		Content: content,
	})
	if err != nil {
		return ThreadMessage{}, classify(ctx, "threads.messages.create", err)
	}
	return fromAPIMessage(msg), nil
}

// CreateRun starts the configured assistant on a thread
func (c *Client) CreateRun(ctx context.Context, threadID string) (Run, error) {
	run, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: c.assistantID,
	})
	if err != nil {
		return Run{}, classify(ctx, "threads.runs.create", err)
	}
	c.logger.Debug("run created",
		zap.String("thread_id", threadID),
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)))
	return fromAPIRun(run), nil
}

// RetrieveRun fetches the current state of a run
func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (Run, error) {
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return Run{}, classify(ctx, "threads.runs.retrieve", err)
	}
	return fromAPIRun(run), nil
}

// CancelRun asks the service to stop a run
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (Run, error) {
	run, err := c.api.CancelRun(ctx, threadID, runID)
	if err != nil {
		return Run{}, classify(ctx, "threads.runs.cancel", err)
	}
	return fromAPIRun(run), nil
}

// ListMessages returns up to limit thread messages, newest first
func (c *Client) ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error) {
	var limitPtr *int
	if limit > 0 {
		limitPtr = &limit
	}
	order := "desc"

	list, err := c.api.ListMessage(ctx, threadID, limitPtr, &order, nil, nil, nil)
	if err != nil {
		return nil, classify(ctx, "threads.messages.list", err)
	}

	out := make([]ThreadMessage, 0, len(list.Messages))
	for _, m := range list.Messages {
		out = append(out, fromAPIMessage(m))
	}
	return out, nil
}

func fromAPIRun(run openai.Run) Run {
	r := Run{
		ID:          run.ID,
		ThreadID:    run.ThreadID,
		AssistantID: run.AssistantID,
		Status:      RunStatus(run.Status),
	}
	if run.LastError != nil {
		r.LastErrorCode = string(run.LastError.Code)
		r.LastErrorMessage = run.LastError.Message
	}
	return r
}

func fromAPIMessage(msg openai.Message) ThreadMessage {
	m := ThreadMessage{
		ID:   msg.ID,
		Role: msg.Role,
	}
	if msg.RunID != nil {
		m.RunID = *msg.RunID
	}
	for _, part := range msg.Content {
		p := ContentPart{Type: part.Type}
		if part.Text != nil {
			p.Text = part.Text.Value
		}
		m.Parts = append(m.Parts, p)
	}
	return m
}

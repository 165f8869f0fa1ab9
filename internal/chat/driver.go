package chat

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/grinbergai/internal/assistant"
	apierrors "github.com/diogo/grinbergai/internal/errors"
	"github.com/diogo/grinbergai/internal/logging"
)

// DefaultNonTextReply is appended when the reply's first content part is not text.
const DefaultNonTextReply = "[non-text response]"

var (
	// ErrEmptyInput is returned for blank input; nothing is appended.
	ErrEmptyInput = errors.New("message is empty")
	// ErrTurnInFlight is returned when a turn is already running.
	ErrTurnInFlight = errors.New("a response is already in progress")
)

// TurnRecorder persists a finished turn. Failures are logged, never surfaced.
type TurnRecorder interface {
	RecordTurn(user, reply string) error
}

// TurnResult describes a finished turn
type TurnResult struct {
	ThreadID string
	RunID    string
	Status   assistant.RunStatus
	// Reply is nil when the newest thread message was not from the assistant.
	Reply *Message
}

// Driver runs one turn at a time against an assistant.Service
type Driver struct {
	svc      assistant.Service
	initErr  error
	store    *Store
	poller   Poller
	recorder TurnRecorder
	nonText  string
	logger   *zap.Logger
	busy     atomic.Bool
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithInitError marks the driver as unusable; every send fails with err.
func WithInitError(err error) DriverOption {
	return func(d *Driver) {
		d.initErr = err
	}
}

// WithPollInterval sets the delay between run status checks
func WithPollInterval(interval time.Duration) DriverOption {
	return func(d *Driver) {
		d.poller.Interval = interval
	}
}

// WithRunTimeout bounds how long a run may stay pending. Zero disables it.
func WithRunTimeout(timeout time.Duration) DriverOption {
	return func(d *Driver) {
		d.poller.Timeout = timeout
	}
}

// WithStatusObserver is called with every polled run status
func WithStatusObserver(fn func(assistant.RunStatus)) DriverOption {
	return func(d *Driver) {
		d.poller.OnStatus = fn
	}
}

// WithRecorder persists completed turns
func WithRecorder(r TurnRecorder) DriverOption {
	return func(d *Driver) {
		d.recorder = r
	}
}

// WithNonTextReply overrides the placeholder used for non-text replies
func WithNonTextReply(text string) DriverOption {
	return func(d *Driver) {
		if text != "" {
			d.nonText = text
		}
	}
}

// WithLogger sets the driver logger
func WithLogger(logger *zap.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a driver writing into store. svc may be nil only when
// WithInitError is given.
func NewDriver(store *Store, svc assistant.Service, opts ...DriverOption) *Driver {
	d := &Driver{
		svc:     svc,
		store:   store,
		poller:  Poller{Interval: DefaultPollInterval},
		nonText: DefaultNonTextReply,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrNop(d.logger)
	d.poller.Logger = d.logger
	if d.svc == nil && d.initErr == nil {
		d.initErr = apierrors.NewConfigError("client", "assistant service not provided")
	}
	return d
}

// Store returns the store the driver writes into
func (d *Driver) Store() *Store {
	return d.store
}

// Ready reports the initialization error, if any
func (d *Driver) Ready() error {
	return d.initErr
}

// Busy reports whether a turn is running
func (d *Driver) Busy() bool {
	return d.busy.Load()
}

// Turn is a started turn whose user message is already in the store
type Turn struct {
	driver  *Driver
	content string
	gen     uint64
	done    atomic.Bool
}

// Content returns the submitted text
func (t *Turn) Content() string {
	return t.content
}

// Begin validates input and appends the user message. The network part runs
// in Turn.Run so a UI can render the message before waiting.
func (d *Driver) Begin(input string) (*Turn, error) {
	content := strings.TrimSpace(input)
	if content == "" {
		return nil, ErrEmptyInput
	}

	if d.initErr != nil {
		d.logger.Error("assistant client not initialized", zap.Error(d.initErr))
		d.store.SetError(d.initErr)
		return nil, d.initErr
	}

	if !d.busy.CompareAndSwap(false, true) {
		return nil, ErrTurnInFlight
	}

	gen := d.store.beginTurn(Message{Role: RoleUser, Content: content})
	return &Turn{driver: d, content: content, gen: gen}, nil
}

// Send runs a whole turn: Begin followed by Run.
func (d *Driver) Send(ctx context.Context, input string) (TurnResult, error) {
	turn, err := d.Begin(input)
	if err != nil {
		return TurnResult{}, err
	}
	return turn.Run(ctx)
}

// Run performs the remote exchange and writes the outcome into the store.
// It may be called once.
func (t *Turn) Run(ctx context.Context) (TurnResult, error) {
	d := t.driver
	if !t.done.CompareAndSwap(false, true) {
		return TurnResult{}, errors.New("turn already run")
	}
	defer d.busy.Store(false)

	result, err := d.exchange(ctx, t.content)
	if err != nil {
		d.logger.Error("chat turn failed",
			zap.String("thread_id", result.ThreadID),
			zap.String("run_id", result.RunID),
			zap.Error(err))
		if !d.store.failTurn(t.gen, err) {
			d.logger.Debug("conversation reset during turn, dropping error")
		}
		return result, err
	}

	if !d.store.completeTurn(t.gen, result.Reply) {
		d.logger.Debug("conversation reset during turn, dropping reply")
		return result, nil
	}

	if d.recorder != nil && result.Reply != nil {
		if err := d.recorder.RecordTurn(t.content, result.Reply.Content); err != nil {
			d.logger.Warn("failed to record turn", zap.Error(err))
		}
	}
	return result, nil
}

// exchange creates a thread, posts content, runs the assistant and extracts
// the reply from the newest thread message.
func (d *Driver) exchange(ctx context.Context, content string) (TurnResult, error) {
	var result TurnResult

	thread, err := d.svc.CreateThread(ctx)
	if err != nil {
		return result, err
	}
	result.ThreadID = thread.ID

	if _, err := d.svc.CreateMessage(ctx, thread.ID, assistant.RoleUser, content); err != nil {
		return result, err
	}

	run, err := d.svc.CreateRun(ctx, thread.ID)
	if err != nil {
		return result, err
	}
	result.RunID = run.ID
	d.logger.Debug("run created", zap.String("thread_id", thread.ID), zap.String("run_id", run.ID))

	run, err = d.poller.Wait(ctx, d.svc, thread.ID, run.ID)
	result.Status = run.Status
	if err != nil {
		return result, err
	}

	if run.Status != assistant.RunStatusCompleted {
		return result, apierrors.NewRunFailedError(run.ID, string(run.Status), run.LastErrorCode, run.LastErrorMessage)
	}

	msgs, err := d.svc.ListMessages(ctx, thread.ID, 1)
	if err != nil {
		return result, err
	}
	if len(msgs) == 0 {
		return result, apierrors.NewParseError("thread has no messages", "messages")
	}

	newest := msgs[0]
	if newest.Role != assistant.RoleAssistant {
		d.logger.Warn("newest thread message is not from the assistant",
			zap.String("thread_id", thread.ID),
			zap.String("role", newest.Role))
		return result, nil
	}
	part, ok := newest.FirstPart()
	if !ok {
		return result, apierrors.NewParseError("assistant message has no content", "messages[0].content")
	}

	reply := Message{Role: RoleAssistant, Content: d.nonText}
	if part.IsText() {
		reply.Content = part.Text
	}
	result.Reply = &reply
	return result, nil
}

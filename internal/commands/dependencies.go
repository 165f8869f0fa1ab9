package commands

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/grinbergai/internal/assistant"
	"github.com/diogo/grinbergai/internal/config"
	"github.com/diogo/grinbergai/internal/history"
	"github.com/diogo/grinbergai/internal/logging"
	"github.com/diogo/grinbergai/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(m tui.Model) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Service replaces the Assistants API client when set.
	Service assistant.Service

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Logger is built by the root command when nil.
	Logger *zap.Logger

	// Conversations opens the history store.
	Conversations func() (*history.Store, error)

	// Clipboard writes text to the system clipboard.
	Clipboard func(string) error

	// IsTTY reports whether stdout is a terminal.
	IsTTY func() bool

	// Stdin is read for piped prompts.
	Stdin io.Reader
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

// RunChat runs the chat program on the terminal
func (d *DefaultTUI) RunChat(m tui.Model) error {
	return tui.RunChat(m)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:           &DefaultTUI{},
		Conversations: history.DefaultStore,
		Clipboard:     clipboard.WriteAll,
		IsTTY:         isStdoutTTY,
		Stdin:         os.Stdin,
	}
}

// service returns the injected service or a client built from the
// environment. A construction error is returned alongside a nil service so
// the chat can still start and report it on the first turn.
func (d *Dependencies) service(cfg config.Config) (assistant.Service, error) {
	if d.Service != nil {
		return d.Service, nil
	}

	logger := logging.OrNop(d.Logger)
	creds := config.LoadCredentials(envFileFlag, logger).Apply(cfg)
	client, err := assistant.NewClient(creds, assistant.WithLogger(logger))
	if err != nil {
		logger.Error("assistant client unavailable", zap.Error(err))
		return nil, err
	}
	return client, nil
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// hasPipedInput reports whether r carries piped data rather than a terminal
func hasPipedInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

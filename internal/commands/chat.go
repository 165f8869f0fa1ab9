package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/grinbergai/internal/chat"
	"github.com/diogo/grinbergai/internal/config"
	"github.com/diogo/grinbergai/internal/history"
	"github.com/diogo/grinbergai/internal/logging"
	"github.com/diogo/grinbergai/internal/render"
	"github.com/diogo/grinbergai/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the Jacobo Grinberg assistant.

Every question starts a fresh assistant thread. Finished turns are recorded
in the conversation list (Ctrl+O).
Type 'exit', 'quit', or press Ctrl+C to end the session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(commandContext(cmd))
	},
}

func runChat(ctx context.Context) error {
	logger := logging.OrNop(deps.Logger)
	cfg := loadConfig()
	persona := loadPersona(logger)
	theme := config.ResolveTheme(cfg, terminalIsDark())

	// A missing key must not stop the UI: the first turn reports it
	svc, initErr := deps.service(cfg)

	tracker := tui.NewStatusTracker()
	driverOpts := []chat.DriverOption{
		chat.WithPollInterval(cfg.PollInterval()),
		chat.WithRunTimeout(cfg.RunTimeout()),
		chat.WithNonTextReply(persona.NonTextReply),
		chat.WithStatusObserver(tracker.Set),
		chat.WithLogger(logger),
	}
	if initErr != nil {
		driverOpts = append(driverOpts, chat.WithInitError(initErr))
	}

	modelOpts := []tui.Option{
		tui.WithPersona(persona),
		tui.WithTheme(theme),
		tui.WithRenderOptions(render.OptionsFromConfig(cfg, theme)),
		tui.WithStatusTracker(tracker),
		tui.WithLogger(logger),
		tui.WithContext(ctx),
	}

	if rec, err := openRecorder(); err != nil {
		logger.Warn("conversation history unavailable", zap.Error(err))
	} else {
		logger.Debug("recording conversation", zap.String("id", rec.ID()))
		driverOpts = append(driverOpts, chat.WithRecorder(rec))
		modelOpts = append(modelOpts, tui.WithConversations(rec.Store(), rec))
	}

	driver := chat.NewDriver(chat.NewStore(), svc, driverOpts...)
	return deps.TUI.RunChat(tui.NewChatModel(driver, modelOpts...))
}

// openRecorder targets the newest entry while it is still empty and starts a
// new one otherwise.
func openRecorder() (*history.Recorder, error) {
	store, err := deps.Conversations()
	if err != nil {
		return nil, err
	}

	entry, err := store.Latest()
	if err != nil {
		return nil, err
	}
	if entry.LastMessage != "" {
		if entry, err = store.Create(""); err != nil {
			return nil, err
		}
	}
	return store.Recorder(entry.ID), nil
}

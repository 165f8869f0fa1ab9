// Package commands provides CLI commands for grinbergai.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/grinbergai/internal/config"
	"github.com/diogo/grinbergai/internal/logging"
)

var (
	// Global flags
	outputFlag  string
	fileFlag    string
	copyFlag    bool
	verboseFlag bool
	envFileFlag string

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"

	deps = NewDependencies()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "grinbergai [prompt]",
	Short: "Chat with the Jacobo Grinberg assistant",
	Long: `grinbergai talks to an OpenAI assistant that answers as Jacobo Grinberg.
Credentials come from OPENAI_API_KEY and ASSISTANT_ID, read from the
environment or a .env file.

Examples:
  grinbergai chat                         Start interactive chat
  grinbergai "¿Qué es la teoría sintérgica?"
  grinbergai -f pregunta.md               Read prompt from file
  cat pregunta.md | grinbergai            Read prompt from stdin
  grinbergai "Hola" -o respuesta.md       Save response to file
  grinbergai theme toggle                 Switch between dark and light`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if deps.Logger != nil {
			_ = deps.Logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "grinbergai %s (built %s)\n", Version, BuildTime)
			return nil
		}

		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(commandContext(cmd), cmd, string(data))
		}

		if len(args) > 0 {
			return runQuery(commandContext(cmd), cmd, args[0])
		}

		if hasPipedInput(deps.Stdin) {
			data, err := io.ReadAll(deps.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(commandContext(cmd), cmd, string(data))
		}

		// No input - show help
		return cmd.Help()
	},
}

// Execute runs the root command; an interrupt cancels the running turn.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Path to the .env file with credentials (default ./.env)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save response to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the response to the clipboard")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(conversationsCmd)
}

// setupLogger builds the shared logger unless one was injected. The chat
// TUI owns the terminal, so it logs to a file.
func setupLogger(cmd *cobra.Command, args []string) error {
	if deps.Logger != nil {
		return nil
	}

	cfg := loadConfig()
	opts := logging.Options{Verbose: verboseFlag || cfg.Verbose}
	if cmd.Name() == chatCmd.Name() {
		path, err := config.GetLogPath()
		if err != nil {
			return err
		}
		opts.File = path
	}

	logger, err := logging.New(opts)
	if err != nil {
		return err
	}
	deps.Logger = logger
	logger.Debug("logger ready", zap.String("command", cmd.Name()), zap.String("file", opts.File))
	return nil
}

// loadConfig returns the user configuration, falling back to defaults
func loadConfig() config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.OrNop(deps.Logger).Warn("using default configuration", zap.Error(err))
		return config.DefaultConfig()
	}
	return cfg
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

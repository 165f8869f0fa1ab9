package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/grinbergai/internal/assistant"
	"github.com/diogo/grinbergai/internal/chat"
	"github.com/diogo/grinbergai/internal/config"
	"github.com/diogo/grinbergai/internal/logging"
	"github.com/diogo/grinbergai/internal/render"
	"github.com/diogo/grinbergai/internal/tui"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#6366f1"),
	lipgloss.Color("#8b5cf6"),
	lipgloss.Color("#a855f7"),
	lipgloss.Color("#d946ef"),
	lipgloss.Color("#ec4899"),
	lipgloss.Color("#818cf8"),
}

var (
	colorText     = render.DarkTheme.Text
	colorTextMute = render.DarkTheme.TextMute
	colorSuccess  = render.DarkTheme.Secondary
	colorPrimary  = render.DarkTheme.Primary
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	status  string
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner writing to out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// setStatus shows a short run status after the message
func (s *spinner) setStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	status := ""
	if s.status != "" {
		status = lipgloss.NewStyle().Foreground(colorTextMute).Render(" (" + s.status + ")")
	}

	fmt.Fprintf(s.out, "\r\033[K%s %s %s%s", spinnerChar, msg, dots.String(), status)
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// runQuery sends a single prompt and prints the reply. Output is decorated
// only when stdout is a terminal.
func runQuery(ctx context.Context, cmd *cobra.Command, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	logger := logging.OrNop(deps.Logger)
	cfg := loadConfig()
	persona := loadPersona(logger)
	decorated := deps.IsTTY()

	svc, initErr := deps.service(cfg)

	var spin *spinner
	driverOpts := []chat.DriverOption{
		chat.WithPollInterval(cfg.PollInterval()),
		chat.WithRunTimeout(cfg.RunTimeout()),
		chat.WithNonTextReply(persona.NonTextReply),
		chat.WithLogger(logger),
	}
	if initErr != nil {
		driverOpts = append(driverOpts, chat.WithInitError(initErr))
	}
	if decorated {
		spin = newSpinner(stderr, persona.ThinkingText)
		driverOpts = append(driverOpts, chat.WithStatusObserver(func(status assistant.RunStatus) {
			spin.setStatus(string(status))
		}))
	}
	driver := chat.NewDriver(chat.NewStore(), svc, driverOpts...)

	if decorated {
		spin.start()
	}
	startTime := time.Now()
	result, err := driver.Send(ctx, prompt)
	if err != nil {
		if decorated {
			spin.stopWithError()
		}
		fmt.Fprintln(stderr, tui.FormatError(err))
		// Already reported with hints above
		cmd.SilenceErrors = true
		return fmt.Errorf("query failed: %w", err)
	}
	if decorated {
		spin.stopWithSuccess("Listo")
	}
	logger.Debug("query finished",
		zap.String("thread_id", result.ThreadID),
		zap.String("run_id", result.RunID),
		zap.Duration("took", time.Since(startTime)))

	text := ""
	if result.Reply != nil {
		text = result.Reply.Content
	}

	if copyFlag || cfg.CopyToClipboard {
		if err := deps.Clipboard(text); err != nil {
			logger.Warn("failed to copy response", zap.Error(err))
			fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(render.DarkTheme.Error).
				Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else if decorated {
			fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if decorated {
			fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).
				Render(fmt.Sprintf("✓ Response saved to %s", outputFlag)))
		}
		return nil
	}

	if !decorated {
		fmt.Fprint(stdout, text)
		return nil
	}

	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	theme := config.ResolveTheme(cfg, terminalIsDark())
	renderOpts := render.OptionsFromConfig(cfg, theme).WithWidth(bubbleWidth - 4)
	rendered := strings.TrimRight(render.MarkdownOrPlain(text, renderOpts), "\n")

	fmt.Fprintln(stdout, assistantLabelStyle.Render("✦ "+persona.AssistantLabel))
	fmt.Fprintln(stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// loadPersona returns the display copy, falling back to the built-in persona
func loadPersona(logger *zap.Logger) config.Persona {
	persona, err := config.LoadPersona()
	if err != nil {
		logger.Warn("using default persona", zap.Error(err))
		return config.DefaultPersona()
	}
	return persona
}

package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/grinbergai/internal/config"
)

// terminalIsDark is replaced in tests
var terminalIsDark = lipgloss.HasDarkBackground

var themeCmd = &cobra.Command{
	Use:       "theme [toggle|dark|light]",
	Short:     "Show or change the color theme",
	Long:      `Without arguments prints the active theme. "toggle" flips and saves it.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"toggle", config.ThemeDark, config.ThemeLight},
	RunE:      runTheme,
}

func runTheme(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	current := config.ResolveTheme(cfg, terminalIsDark())

	if len(args) == 0 {
		source := "saved"
		if !config.ValidTheme(cfg.Theme) {
			source = "terminal default"
		}
		fmt.Fprintf(out, "%s (%s)\n", current, source)
		return nil
	}

	var next string
	switch args[0] {
	case "toggle":
		next, err = config.ToggleTheme(current)
	default:
		next = args[0]
		err = config.SetTheme(next)
	}
	if err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}

	fmt.Fprintf(out, "Theme set to %s\n", next)
	return nil
}

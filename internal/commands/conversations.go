package commands

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/grinbergai/internal/history"
)

var clearYesFlag bool

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Manage the conversation list",
	Long:    `View and manage the conversation list shown in the chat side panel.`,
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runConversationsList,
}

var conversationsNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Add an empty conversation",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConversationsNew,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a conversation",
	Long:  "Delete a conversation.\n\n" + history.ListAliases(),
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

var conversationsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all conversations",
	Args:  cobra.NoArgs,
	RunE:  runConversationsClear,
}

func init() {
	conversationsClearCmd.Flags().BoolVarP(&clearYesFlag, "yes", "y", false, "Do not ask for confirmation")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsNewCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
	conversationsCmd.AddCommand(conversationsClearCmd)
}

func openConversations() (*history.Store, error) {
	store, err := deps.Conversations()
	if err != nil {
		return nil, fmt.Errorf("failed to open conversations: %w", err)
	}
	return store, nil
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	store, err := openConversations()
	if err != nil {
		return err
	}

	entries, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No conversations found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tID\tTITLE\tLAST MESSAGE\tUPDATED")
	for i, e := range entries {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1,
			shortID(e.ID),
			history.Truncate(e.Title, 40),
			history.Truncate(e.LastMessage, 40),
			history.FormatRelativeTime(e.UpdatedAt))
	}
	return w.Flush()
}

func runConversationsNew(cmd *cobra.Command, args []string) error {
	store, err := openConversations()
	if err != nil {
		return err
	}

	title := ""
	if len(args) > 0 {
		title = args[0]
	}
	entry, err := store.Create(title)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created conversation %s (%s)\n", shortID(entry.ID), entry.Title)
	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	store, err := openConversations()
	if err != nil {
		return err
	}

	id, err := history.NewResolver(store).Resolve(args[0])
	if err != nil {
		return err
	}
	if err := store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted conversation: %s\n", shortID(id))
	return nil
}

func runConversationsClear(cmd *cobra.Command, args []string) error {
	store, err := openConversations()
	if err != nil {
		return err
	}

	if !clearYesFlag {
		fmt.Fprint(cmd.OutOrStdout(), "Delete all conversations? [y/N] ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" && answer != "s" && answer != "si" && answer != "sí" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := store.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "All conversations deleted.")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"agentchat/pkg/chattypes"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	pinStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	roleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

var exportOutput string

// sessionsCmd groups the session management subcommands
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
	Long:  `List, create, rename, pin, archive, delete, and export chat sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active sessions",
	Long:  `List active sessions with pinned sessions first, each group most recent first.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := newStore()
		if err != nil {
			return err
		}
		if err := s.RefreshSessions(context.Background()); err != nil {
			return err
		}

		sessions := s.Sessions()
		if len(sessions) == 0 {
			fmt.Println(metaStyle.Render("No sessions yet. Start one with 'agentchat chat <message>'."))
			return nil
		}
		for _, session := range sessions {
			fmt.Println(renderSessionLine(session))
		}
		if s.HasMore() {
			fmt.Println(metaStyle.Render("(more sessions on the server)"))
		}
		return nil
	},
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a new session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		title := ""
		if len(args) == 1 {
			title = args[0]
		}
		s, err := newStore()
		if err != nil {
			return err
		}
		session, err := s.CreateSession(context.Background(), title)
		if err != nil {
			return err
		}
		fmt.Printf("Created session %s (%s)\n", titleStyle.Render(session.Title), session.ID)
		return nil
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <session-id> <title>",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		s, err := newStore()
		if err != nil {
			return err
		}
		if err := s.RenameSession(context.Background(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Renamed session %s to %s\n", args[0], titleStyle.Render(args[1]))
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		s, err := newStore()
		if err != nil {
			return err
		}
		if err := s.DeleteSession(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s\n", args[0])
		return nil
	},
}

var sessionsPinCmd = &cobra.Command{
	Use:   "pin <session-id>",
	Short: "Toggle a session's pinned flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		s, err := newStore()
		if err != nil {
			return err
		}
		if err := s.RefreshSessions(context.Background()); err != nil {
			return err
		}
		if err := s.TogglePin(context.Background(), args[0]); err != nil {
			return err
		}
		for _, session := range s.Sessions() {
			if session.ID == args[0] {
				if session.IsPinned {
					fmt.Printf("Pinned session %s\n", args[0])
				} else {
					fmt.Printf("Unpinned session %s\n", args[0])
				}
				return nil
			}
		}
		return nil
	},
}

var sessionsArchiveCmd = &cobra.Command{
	Use:   "archive <session-id>",
	Short: "Archive a session",
	Long:  `Archive a session. Archived sessions are removed from the active list but kept on the server.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		s, err := newStore()
		if err != nil {
			return err
		}
		if err := s.ArchiveSession(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Archived session %s\n", args[0])
		return nil
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session transcript as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		s, err := newStore()
		if err != nil {
			return err
		}
		exported, err := s.ExportSession(context.Background(), args[0])
		if err != nil {
			return err
		}
		if exportOutput == "" {
			fmt.Println(string(exported.Data))
			return nil
		}
		if err := os.WriteFile(exportOutput, exported.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write export file: %w", err)
		}
		fmt.Printf("Exported session %s to %s\n", args[0], exportOutput)
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		s, err := newStore()
		if err != nil {
			return err
		}
		if err := s.SelectSession(context.Background(), args[0]); err != nil {
			return err
		}
		messages, _ := s.Messages(args[0])
		if len(messages) == 0 {
			fmt.Println(metaStyle.Render("(empty session)"))
			return nil
		}
		for _, msg := range messages {
			fmt.Println(renderMessage(msg))
		}
		return nil
	},
}

func init() {
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the export to a file instead of stdout")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsRenameCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsPinCmd)
	sessionsCmd.AddCommand(sessionsArchiveCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
}

// renderSessionLine formats one session entry for the list view.
func renderSessionLine(session chattypes.Session) string {
	marker := "  "
	if session.IsPinned {
		marker = pinStyle.Render("* ")
	}

	line := marker + titleStyle.Render(session.Title)
	meta := []string{session.ID}
	if session.MessageCount != nil {
		meta = append(meta, fmt.Sprintf("%d messages", *session.MessageCount))
	}
	if !session.UpdatedAt.IsZero() {
		meta = append(meta, session.UpdatedAt.Local().Format(time.RFC822))
	}
	line += "  " + metaStyle.Render(strings.Join(meta, " | "))

	if session.LastMessagePreview != "" {
		line += "\n    " + metaStyle.Render(session.LastMessagePreview)
	}
	return line
}

// renderMessage formats one transcript message.
func renderMessage(msg chattypes.Message) string {
	label := roleStyle.Render(msg.Role)
	if msg.Role == chattypes.RoleSystem || msg.Role == chattypes.RoleTool {
		label = systemStyle.Render(msg.Role)
	}
	return fmt.Sprintf("%s: %s", label, msg.Content)
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatSessionID string

// chatCmd sends one message and streams the assistant's reply to the terminal.
var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a message and stream the reply",
	Long: `Send a message to the agent and print the reply as it streams in.
Without --session a new session is created for the conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		s, err := newStore()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if chatSessionID != "" {
			if err := s.SelectSession(ctx, chatSessionID); err != nil {
				return err
			}
		}

		// Stream rendering: each notification republishes the assistant
		// message's full content, so print only the unseen suffix.
		printed := 0
		lastPhase := ""
		s.Subscribe(func(string) {
			if phase := s.Phase(); phase != "" && phase != lastPhase {
				lastPhase = phase
				fmt.Fprintln(os.Stderr, metaStyle.Render("["+phase+"]"))
			}
			messages, ok := s.Messages(s.CurrentSessionID())
			if !ok || len(messages) == 0 {
				return
			}
			last := messages[len(messages)-1]
			if !last.IsStreaming {
				return
			}
			if len(last.Content) > printed {
				fmt.Print(last.Content[printed:])
				printed = len(last.Content)
			}
		})

		if err := s.SendMessage(ctx, text); err != nil {
			return err
		}
		fmt.Println()

		if current, ok := s.CurrentSession(); ok {
			fmt.Fprintln(os.Stderr, metaStyle.Render("session: "+current.ID))
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "Continue an existing session instead of creating one")
}

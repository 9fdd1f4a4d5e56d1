package messages

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/crucial707/courier/cmd/cli/client"
	"github.com/crucial707/courier/cmd/cli/output"
	"github.com/spf13/cobra"
)

// InitMessages registers inbox, send, reply, conversations and thread.
func InitMessages(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		inboxCmd(),
		sendCmd(),
		replyCmd(),
		conversationsCmd(),
		threadCmd(),
	)
}

func idArg(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

// messageBody takes the body from the positional args, or from stdin when there are none.
func messageBody(cmd *cobra.Command, args []string) (string, error) {
	body := strings.Join(args, " ")
	if body == "" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		body = strings.TrimRight(string(b), "\r\n")
	}
	if strings.TrimSpace(body) == "" {
		return "", errors.New("message body is required")
	}
	return body, nil
}

func renderMessages(w io.Writer, msgs []client.Message) {
	rows := make([][]interface{}, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, []interface{}{m.ID, m.SenderUsername, output.Time(m.Timestamp), output.Body(m.Body)})
	}
	output.RenderTable(w, []string{"ID", "From", "Sent", "Body"}, rows)
}

// ==========================
// INBOX
// ==========================
func inboxCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List messages sent to you, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var msgs []client.Message
			raw, err := c.Get(cmd.Context(), "/messages", &msgs)
			if err != nil {
				return fmt.Errorf("inbox: %w", err)
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), raw)
			}
			if len(msgs) == 0 {
				output.Empty(cmd.OutOrStdout(), "messages")
				return nil
			}
			renderMessages(cmd.OutOrStdout(), msgs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

// ==========================
// SEND
// ==========================
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <user-id> [body...]",
		Short: "Send a message to a user",
		Long:  "Send a message to a user. Without a body argument the message is read from stdin.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := idArg(args[0], "user")
			if err != nil {
				return err
			}
			body, err := messageBody(cmd, args[1:])
			if err != nil {
				return err
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var m client.Message
			if _, err := c.Post(cmd.Context(), fmt.Sprintf("/users/%d/messages", to), map[string]string{"body": body}, &m); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Message %d sent.\n", m.ID)
			return nil
		},
	}
}

// ==========================
// REPLY
// ==========================
func replyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <message-id> [body...]",
		Short: "Reply to a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args[0], "message")
			if err != nil {
				return err
			}
			body, err := messageBody(cmd, args[1:])
			if err != nil {
				return err
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var m client.Message
			if _, err := c.Post(cmd.Context(), fmt.Sprintf("/messages/%d/reply", id), map[string]string{"body": body}, &m); err != nil {
				return fmt.Errorf("reply: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reply %d sent to user %d.\n", m.ID, m.RecipientID)
			return nil
		},
	}
}

// ==========================
// CONVERSATIONS
// ==========================
func conversationsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List users you have exchanged messages with",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var partners []client.User
			raw, err := c.Get(cmd.Context(), "/conversations", &partners)
			if err != nil {
				return fmt.Errorf("conversations: %w", err)
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), raw)
			}
			if len(partners) == 0 {
				output.Empty(cmd.OutOrStdout(), "conversations")
				return nil
			}
			rows := make([][]interface{}, 0, len(partners))
			for _, u := range partners {
				rows = append(rows, []interface{}{u.ID, u.Username})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Username"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

// ==========================
// THREAD
// ==========================
func threadCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "thread <user-id>",
		Short: "Show the conversation with a user, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			other, err := idArg(args[0], "user")
			if err != nil {
				return err
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var t client.Thread
			raw, err := c.Get(cmd.Context(), fmt.Sprintf("/conversations/%d", other), &t)
			if err != nil {
				return fmt.Errorf("thread: %w", err)
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), raw)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Conversation with %s\n", t.Other.Username)
			if len(t.Messages) == 0 {
				output.Empty(cmd.OutOrStdout(), "messages yet")
				return nil
			}
			renderMessages(cmd.OutOrStdout(), t.Messages)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	unireservas "github.com/unireservas/unireservas-go"
)

var (
	chatsJSON  bool
	chatsPages int
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Talk to landlords and students",
}

// viewerType is the side of the conversation the signed-in user is on.
func viewerType(cfg *Config) unireservas.SenderType {
	if cfg.Session.UserType == string(unireservas.UserAdvertiser) {
		return unireservas.SenderAdvertiser
	}
	return unireservas.SenderStudent
}

// findChat looks chatID up in the chat list, falling back to the detail
// endpoint.
func findChat(ctx context.Context, client *unireservas.Client, chats *unireservas.ChatSession, chatID string) (unireservas.Chat, error) {
	list, err := chats.Chats(ctx, false)
	if err == nil {
		for _, c := range list {
			if c.ID == chatID {
				return c, nil
			}
		}
	}
	c, err := client.Chats.Get(ctx, chatID)
	if err != nil {
		return unireservas.Chat{}, err
	}
	return *c, nil
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your chats",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, cfg, err := getClient()
		if err != nil {
			return err
		}
		chats := unireservas.NewChatSession(client.Chats, unireservas.WithChatLogger(logger))
		defer chats.Close()

		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		list, err := chats.Chats(ctx, true)
		if err != nil {
			return friendly(err)
		}
		if chatsJSON {
			return printJSON(list)
		}
		if len(list) == 0 {
			fmt.Println("No chats yet.")
			return nil
		}

		now := time.Now()
		viewer := viewerType(cfg)
		for _, c := range list {
			age := ""
			if t, err := unireservas.ParseTimestamp(c.LastMessageAt); err == nil {
				age = unireservas.FormatLastMessageTime(t, now)
			}
			unread := ""
			if c.UnreadCount > 0 {
				unread = fmt.Sprintf(" (%d)", c.UnreadCount)
			}
			fmt.Printf("%-6s %-24s %-30s %6s  %s%s\n",
				c.ID, truncate(c.Counterpart(viewer), 24), truncate(c.PropertyTitle, 30), age, truncate(c.LastMessage, 40), unread)
		}
		return nil
	},
}

var chatsOpenCmd = &cobra.Command{
	Use:   "open <chat-id>",
	Short: "Show a chat's messages",
	Long:  "Show the latest page of a chat. --pages loads older pages as well, the way scrolling up does.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		chats := unireservas.NewChatSession(client.Chats, unireservas.WithChatLogger(logger))
		defer chats.Close()

		ctx, cancel := commandContext(30 * time.Second)
		defer cancel()

		chat, err := findChat(ctx, client, chats, args[0])
		if err != nil {
			return friendly(err)
		}
		if err := chats.Open(ctx, chat); err != nil {
			return friendly(err)
		}
		for i := 1; i < chatsPages && chats.HasMore(); i++ {
			if _, err := chats.OnScroll(ctx, 0); err != nil {
				return friendly(err)
			}
		}

		msgs := chats.Messages()
		if chatsJSON {
			return printJSON(msgs)
		}

		fmt.Printf("%s\n", valueOrDefault(chat.PropertyTitle, "Chat "+chat.ID))
		if chats.HasMore() {
			fmt.Println("  (older messages available, use --pages)")
		}
		now := time.Now()
		for _, m := range msgs {
			when := m.CreatedAt
			if t, err := unireservas.ParseTimestamp(m.CreatedAt); err == nil {
				when = unireservas.FormatMessageDate(t, now)
			}
			fmt.Printf("[%s] %s: %s\n", when, valueOrDefault(m.SenderName, string(m.SenderType)), m.Content)
		}
		return nil
	},
}

var chatsSendCmd = &cobra.Command{
	Use:   "send <chat-id> <message>",
	Short: "Send a message to a chat",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		chats := unireservas.NewChatSession(client.Chats, unireservas.WithChatLogger(logger))
		defer chats.Close()

		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		chat, err := findChat(ctx, client, chats, args[0])
		if err != nil {
			return friendly(err)
		}
		if err := chats.Open(ctx, chat); err != nil {
			return friendly(err)
		}
		chats.SetDraft(strings.Join(args[1:], " "))

		msg, err := chats.Send(ctx)
		if err != nil {
			return friendly(err)
		}
		if chatsJSON {
			return printJSON(msg)
		}
		fmt.Printf("Message sent (id %s)\n", msg.ID)
		return nil
	},
}

var chatsStartCmd = &cobra.Command{
	Use:   "start <property-id> <message>",
	Short: "Start a chat with a property's advertiser",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		chat, err := client.Chats.Create(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return friendly(err)
		}
		if chatsJSON {
			return printJSON(chat)
		}
		fmt.Printf("Chat %s open with %s\n", chat.ID, valueOrDefault(chat.AdvertiserName, "the advertiser"))
		return nil
	},
}

func init() {
	chatsCmd.PersistentFlags().BoolVar(&chatsJSON, "json", false, "Output raw JSON")
	chatsOpenCmd.Flags().IntVar(&chatsPages, "pages", 1, "Number of message pages to load")

	chatsCmd.AddCommand(chatsListCmd, chatsOpenCmd, chatsSendCmd, chatsStartCmd)
	rootCmd.AddCommand(chatsCmd)
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	unireservas "github.com/unireservas/unireservas-go"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, session and account activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, session, cfg, err := getClient()
		if err != nil {
			return err
		}

		fmt.Println("Configuration:")
		fmt.Printf("  Base URL:     %s\n", client.BaseURL())
		if cfg.Default.FirebaseAPIKey != "" {
			fmt.Printf("  Identity key: %s\n", maskKey(cfg.Default.FirebaseAPIKey))
		} else {
			fmt.Println("  Identity key: (not set)")
		}

		fmt.Println()
		fmt.Println("Session:")
		fmt.Printf("  User:  %s\n", valueOrDefault(cfg.Session.UserName, "(signed out)"))
		tokenStatus := "none"
		if session.Token() != "" {
			if exp, ok := session.ExpiresAt(); ok {
				if session.Expired() {
					tokenStatus = fmt.Sprintf("EXPIRED (expired %s)", exp.Format(time.RFC3339))
				} else {
					tokenStatus = fmt.Sprintf("valid (expires %s)", exp.Format(time.RFC3339))
				}
			} else {
				tokenStatus = "present (no readable expiry)"
			}
		}
		fmt.Printf("  Token: %s\n", tokenStatus)

		if !session.IsAuthenticated() {
			return nil
		}

		fmt.Println()
		fmt.Println("Activity:")

		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		var (
			chats        *unireservas.ChatList
			reservations []unireservas.Reservation
			favorites    *unireservas.FavoriteList
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			chats, err = client.Chats.Mine(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			reservations, err = client.Reservations.Mine(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			favorites, err = client.Profiles.Favorites(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			fmt.Printf("  Error fetching activity: %s\n", unireservas.UserMessage(err))
			return nil
		}

		unread := 0
		for _, c := range chats.Chats {
			unread += c.UnreadCount
		}
		pending := 0
		for _, r := range reservations {
			if r.Status == unireservas.StatusPending {
				pending++
			}
		}
		fmt.Printf("  Chats:        %d (%d unread)\n", chats.Total, unread)
		fmt.Printf("  Reservations: %d (%d pending)\n", len(reservations), pending)
		fmt.Printf("  Favorites:    %d\n", favorites.Total)
		return nil
	},
}

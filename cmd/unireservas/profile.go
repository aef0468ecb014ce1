package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	unireservas "github.com/unireservas/unireservas-go"
)

var profileJSON bool

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View profiles and favorites",
}

var profileShowCmd = &cobra.Command{
	Use:   "show [user-id]",
	Short: "Show your profile, or another user's",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		var p *unireservas.Profile
		if len(args) == 1 {
			p, err = client.Profiles.Get(ctx, args[0])
		} else {
			p, err = client.Profiles.Me(ctx)
		}
		if err != nil {
			return friendly(err)
		}
		if profileJSON {
			return printJSON(p)
		}

		base := p.Base()
		fmt.Printf("Name:  %s\n", base.Name)
		fmt.Printf("Email: %s\n", base.Email)
		fmt.Printf("Kind:  %s\n", p.Kind)
		if base.Phone != "" {
			fmt.Printf("Phone: %s\n", base.Phone)
		}
		switch {
		case p.Student != nil:
			s := p.Student
			fmt.Printf("University: %s\n", valueOrDefault(s.University, "(not set)"))
			if s.Course != "" {
				fmt.Printf("Course:     %s (%s)\n", s.Course, valueOrDefault(s.Semester, "?"))
			}
			fmt.Printf("Favorites:  %d\n", len(s.FavoriteProperties))
		case p.Advertiser != nil:
			a := p.Advertiser
			fmt.Printf("Company:    %s\n", valueOrDefault(a.CompanyName, "(not set)"))
			fmt.Printf("Verified:   %t\n", a.Verified)
			fmt.Printf("Listings:   %d\n", a.TotalProperties)
		}
		return nil
	},
}

var profileFavoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List your favorite properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		favs, err := client.Profiles.Favorites(ctx)
		if err != nil {
			return friendly(err)
		}
		if profileJSON {
			return printJSON(favs)
		}
		if favs.Total == 0 {
			fmt.Println("No favorites yet.")
			return nil
		}
		fmt.Printf("%d favorite(s): %s\n", favs.Total, strings.Join(favs.FavoriteProperties, ", "))
		return nil
	},
}

func init() {
	profileCmd.PersistentFlags().BoolVar(&profileJSON, "json", false, "Output raw JSON")
	profileCmd.AddCommand(profileShowCmd, profileFavoritesCmd)
	rootCmd.AddCommand(profileCmd)
}

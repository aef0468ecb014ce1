package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	unireservas "github.com/unireservas/unireservas-go"
)

var interestsJSON bool

var interestsCmd = &cobra.Command{
	Use:   "interests",
	Short: "Express and answer rental interest",
}

func printInterests(list []unireservas.Interest) error {
	if interestsJSON {
		return printJSON(list)
	}
	if len(list) == 0 {
		fmt.Println("No interests found.")
		return nil
	}
	for _, in := range list {
		fmt.Printf("%-6s property %-6s %-9s %s\n", in.ID, in.PropertyID, in.Status, truncate(in.Message, 60))
	}
	return nil
}

var interestsSendCmd = &cobra.Command{
	Use:   "send <property-id> <message>",
	Short: "Tell an advertiser you are interested in a property",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		in, err := client.Rentals.ExpressInterest(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return friendly(err)
		}
		if interestsJSON {
			return printJSON(in)
		}
		fmt.Printf("Interest %s sent\n", in.ID)
		return nil
	},
}

var interestsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List interests you sent",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		list, err := client.Rentals.Sent(ctx)
		if err != nil {
			return friendly(err)
		}
		return printInterests(list)
	},
}

var interestsReceivedCmd = &cobra.Command{
	Use:   "received",
	Short: "List interests in your listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		list, err := client.Rentals.Received(ctx)
		if err != nil {
			return friendly(err)
		}
		return printInterests(list)
	},
}

var interestsStatusCmd = &cobra.Command{
	Use:   "status <interest-id> <pending|accepted|rejected>",
	Short: "Answer an interest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		in, err := client.Rentals.SetStatus(ctx, args[0], unireservas.InterestStatus(args[1]))
		if err != nil {
			return friendly(err)
		}
		if interestsJSON {
			return printJSON(in)
		}
		fmt.Printf("Interest %s is now %s\n", in.ID, in.Status)
		return nil
	},
}

func init() {
	interestsCmd.PersistentFlags().BoolVar(&interestsJSON, "json", false, "Output raw JSON")
	interestsCmd.AddCommand(interestsSendCmd, interestsMineCmd, interestsReceivedCmd, interestsStatusCmd)
	rootCmd.AddCommand(interestsCmd)
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	unireservas "github.com/unireservas/unireservas-go"
)

var (
	reservationsJSON   bool
	reservationsStatus string

	reserveStart   string
	reserveEnd     string
	reserveGuests  int
	reserveMessage string
)

var reservationsCmd = &cobra.Command{
	Use:     "reservations",
	Aliases: []string{"res"},
	Short:   "Request and manage stays",
}

var reservationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your reservations",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		book := unireservas.NewReservationBook(client.Reservations, logger)

		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		if err := book.Load(ctx); err != nil {
			return friendly(err)
		}
		list := book.List()
		if reservationsStatus != "" {
			list = book.ByStatus(unireservas.ReservationStatus(reservationsStatus))
		}
		if reservationsJSON {
			return printJSON(list)
		}
		if len(list) == 0 {
			fmt.Println("No reservations found.")
			return nil
		}
		for _, r := range list {
			fmt.Printf("%-6s %-10s %s → %s  %d guest(s)  %14s  %s\n",
				r.ID, unireservas.StatusLabel(r.Status), r.StartDate, r.EndDate, r.Guests,
				unireservas.FormatPrice(r.TotalPrice), valueOrDefault(r.PropertyTitle, r.PropertyID))
		}
		return nil
	},
}

var reservationsCreateCmd = &cobra.Command{
	Use:   "create <property-id>",
	Short: "Request a stay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}

		var form unireservas.ReservationForm
		if reserveStart != "" {
			if form.StartDate, err = time.Parse(unireservas.DateLayout, reserveStart); err != nil {
				return fmt.Errorf("invalid --start %q: use YYYY-MM-DD", reserveStart)
			}
		}
		if reserveEnd != "" {
			if form.EndDate, err = time.Parse(unireservas.DateLayout, reserveEnd); err != nil {
				return fmt.Errorf("invalid --end %q: use YYYY-MM-DD", reserveEnd)
			}
		}
		form.Guests = reserveGuests
		form.Message = reserveMessage

		ctx, cancel := commandContext(20 * time.Second)
		defer cancel()

		property, err := client.Properties.Get(ctx, args[0])
		if err != nil {
			return friendly(err)
		}
		res, err := client.Reservations.Create(ctx, property, form)
		if err != nil {
			return friendly(err)
		}
		if reservationsJSON {
			return printJSON(res)
		}
		fmt.Printf("Reservation %s requested for %s\n", res.ID, property.Title)
		fmt.Printf("  %s → %s, %d guest(s)\n", res.StartDate, res.EndDate, res.Guests)
		fmt.Printf("  Total: %s\n", unireservas.FormatPrice(res.TotalPrice))
		fmt.Printf("  Status: %s\n", unireservas.StatusLabel(res.Status))
		return nil
	},
}

// transitionCmd builds cancel/confirm/reject, which differ only in the book
// method they call.
func transitionCmd(use, short, done string,
	apply func(*unireservas.ReservationBook, context.Context, string) (*unireservas.Reservation, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <reservation-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := getClient()
			if err != nil {
				return err
			}
			book := unireservas.NewReservationBook(client.Reservations, logger)

			ctx, cancel := commandContext(15 * time.Second)
			defer cancel()

			if err := book.Load(ctx); err != nil {
				return friendly(err)
			}
			res, err := apply(book, ctx, args[0])
			if err != nil {
				return friendly(err)
			}
			if reservationsJSON {
				return printJSON(res)
			}
			fmt.Printf("Reservation %s %s\n", args[0], done)
			return nil
		},
	}
}

func init() {
	reservationsCmd.PersistentFlags().BoolVar(&reservationsJSON, "json", false, "Output raw JSON")
	reservationsListCmd.Flags().StringVar(&reservationsStatus, "status", "", "Only show pending, confirmed, cancelled or rejected")

	f := reservationsCreateCmd.Flags()
	f.StringVar(&reserveStart, "start", "", "Check-in date (YYYY-MM-DD)")
	f.StringVar(&reserveEnd, "end", "", "Check-out date (YYYY-MM-DD)")
	f.IntVar(&reserveGuests, "guests", 1, "Number of guests")
	f.StringVar(&reserveMessage, "message", "", "Message to the advertiser")

	reservationsCmd.AddCommand(
		reservationsListCmd,
		reservationsCreateCmd,
		transitionCmd("cancel", "Cancel a pending reservation", "cancelled", (*unireservas.ReservationBook).Cancel),
		transitionCmd("confirm", "Confirm a pending reservation (advertisers)", "confirmed", (*unireservas.ReservationBook).Confirm),
		transitionCmd("reject", "Reject a pending reservation (advertisers)", "rejected", (*unireservas.ReservationBook).Reject),
	)
	rootCmd.AddCommand(reservationsCmd)
}

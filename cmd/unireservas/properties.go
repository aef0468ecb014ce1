package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	unireservas "github.com/unireservas/unireservas-go"
)

var (
	propsJSON bool

	// properties list
	propsType       string
	propsPriceRange string
	propsMaxPrice   float64
	propsLocation   string
	propsSearch     string
	propsSort       string
	propsAmenities  []string
	propsPage       int
	propsPerPage    int

	// properties create
	createTitle       string
	createType        string
	createPrice       float64
	createLocation    string
	createUniversity  string
	createDistance    string
	createCapacity    int
	createDescription string
	createAmenities   []string
)

var propertiesCmd = &cobra.Command{
	Use:     "properties",
	Aliases: []string{"props"},
	Short:   "Browse and manage listings",
}

// ============================================================================
// properties list
// ============================================================================

var propertiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List properties, filtered and sorted locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, session, _, err := getClient()
		if err != nil {
			return err
		}

		filters := unireservas.DefaultFilters().
			WithType(propsType).
			WithPriceRange(propsPriceRange).
			WithLocation(propsLocation).
			WithSearchTerm(propsSearch).
			WithSort(unireservas.SortOption(propsSort))
		if cmd.Flags().Changed("max-price") {
			filters = filters.WithMaxPrice(&propsMaxPrice)
		}
		for _, a := range propsAmenities {
			filters = filters.WithAmenity(a)
		}

		store := unireservas.NewPropertyStore(client.Properties, session, unireservas.WithStoreLogger(logger))
		store.SetFilters(filters)

		ctx, cancel := commandContext(20 * time.Second)
		defer cancel()

		if err := store.Refresh(ctx, &unireservas.ListOptions{Page: propsPage, PerPage: propsPerPage}); err != nil {
			return friendly(err)
		}
		visible := store.Visible()

		if propsJSON {
			return printJSON(visible)
		}
		if len(visible) == 0 {
			fmt.Println("No properties match these filters.")
			return nil
		}
		for _, p := range visible {
			printPropertyLine(p)
		}
		fmt.Printf("\n%d of %d shown\n", len(visible), len(store.Properties()))
		return nil
	},
}

func printPropertyLine(p unireservas.Property) {
	fav := " "
	if p.IsFavorited {
		fav = "*"
	}
	fmt.Printf("%s %-6s %-40s %-12s %14s  %s (%s)\n",
		fav, p.ID, truncate(p.Title, 40), p.Type, unireservas.FormatPrice(p.Price), p.Location, p.University)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// ============================================================================
// properties show / favorite
// ============================================================================

var propertiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(10 * time.Second)
		defer cancel()

		p, err := client.Properties.Get(ctx, args[0])
		if err != nil {
			return friendly(err)
		}
		if propsJSON {
			return printJSON(p)
		}

		fmt.Printf("%s\n", p.Title)
		fmt.Printf("  ID:         %s\n", p.ID)
		fmt.Printf("  Type:       %s\n", p.Type)
		fmt.Printf("  Price:      %s\n", unireservas.FormatPrice(p.Price))
		fmt.Printf("  Location:   %s\n", p.Location)
		fmt.Printf("  University: %s (%s)\n", p.University, p.Distance)
		fmt.Printf("  Capacity:   %d\n", p.Capacity)
		fmt.Printf("  Rating:     %.1f\n", p.Rating)
		if len(p.Amenities) > 0 {
			fmt.Printf("  Amenities:  %s\n", strings.Join(p.Amenities, ", "))
		}
		if p.Description != "" {
			fmt.Printf("\n%s\n", p.Description)
		}
		return nil
	},
}

var propertiesFavoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle a property in your favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, session, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(10 * time.Second)
		defer cancel()

		p, err := client.Properties.Get(ctx, args[0])
		if err != nil {
			return friendly(err)
		}
		store := unireservas.NewPropertyStore(client.Properties, session, unireservas.WithStoreLogger(logger))
		store.Upsert(*p)

		on, err := store.ToggleFavorite(ctx, p.ID)
		if err != nil {
			return friendly(err)
		}
		if on {
			fmt.Printf("Added %q to favorites\n", p.Title)
		} else {
			fmt.Printf("Removed %q from favorites\n", p.Title)
		}
		return nil
	},
}

// ============================================================================
// properties search / mine
// ============================================================================

var propertiesSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search listing titles on the server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		page, err := client.Properties.Search(ctx, strings.Join(args, " "),
			&unireservas.ListOptions{Page: propsPage, PerPage: propsPerPage})
		if err != nil {
			return friendly(err)
		}
		if propsJSON {
			return printJSON(page)
		}
		if len(page.Properties) == 0 {
			fmt.Println("No properties found.")
			return nil
		}
		for _, p := range page.Properties {
			printPropertyLine(p)
		}
		return nil
	},
}

var propertiesMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		props, err := client.Properties.Mine(ctx)
		if err != nil {
			return friendly(err)
		}
		if propsJSON {
			return printJSON(props)
		}
		if len(props) == 0 {
			fmt.Println("You have no listings.")
			return nil
		}
		for _, p := range props {
			printPropertyLine(p)
		}
		return nil
	},
}

// ============================================================================
// properties create / delete / upload
// ============================================================================

var propertiesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(20 * time.Second)
		defer cancel()

		p, err := client.Properties.Create(ctx, &unireservas.PropertyCreate{
			Title:       createTitle,
			Type:        unireservas.PropertyType(createType),
			Price:       createPrice,
			Location:    createLocation,
			University:  createUniversity,
			Distance:    createDistance,
			Amenities:   createAmenities,
			Capacity:    createCapacity,
			Description: createDescription,
			Images:      []string{},
		})
		if err != nil {
			return friendly(err)
		}
		if propsJSON {
			return printJSON(p)
		}
		fmt.Printf("Listing created: %s (%s)\n", p.Title, p.ID)
		return nil
	},
}

var propertiesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your listings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(10 * time.Second)
		defer cancel()

		if err := client.Properties.Delete(ctx, args[0]); err != nil {
			return friendly(err)
		}
		fmt.Printf("Deleted listing %s\n", args[0])
		return nil
	},
}

var propertiesUploadCmd = &cobra.Command{
	Use:   "upload <id> <image>...",
	Short: "Attach images to a listing",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient()
		if err != nil {
			return err
		}

		files := make([]unireservas.UploadFile, 0, len(args)-1)
		for _, path := range args[1:] {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", path, err)
			}
			files = append(files, unireservas.UploadFile{Name: filepath.Base(path), Data: data})
		}

		ctx, cancel := commandContext(60 * time.Second)
		defer cancel()

		res, err := client.Properties.UploadImages(ctx, args[0], files)
		if err != nil {
			return friendly(err)
		}
		if propsJSON {
			return printJSON(res)
		}
		fmt.Printf("Uploaded %d image(s):\n", len(res.ImageURLs))
		for _, u := range res.ImageURLs {
			fmt.Printf("  %s\n", u)
		}
		return nil
	},
}

func init() {
	propertiesCmd.PersistentFlags().BoolVar(&propsJSON, "json", false, "Output raw JSON")
	propertiesCmd.PersistentFlags().IntVar(&propsPage, "page", 0, "Server page")
	propertiesCmd.PersistentFlags().IntVar(&propsPerPage, "per-page", 0, "Server page size")

	f := propertiesListCmd.Flags()
	f.StringVar(&propsType, "type", unireservas.AllTypes, "Property type: kitnet, quarto, apartamento or todos")
	f.StringVar(&propsPriceRange, "price-range", unireservas.AnyPrice, "Price bucket: "+strings.Join(unireservas.PriceBuckets, ", "))
	f.Float64Var(&propsMaxPrice, "max-price", 0, "Maximum monthly price")
	f.StringVar(&propsLocation, "location", "", "Location or university contains")
	f.StringVar(&propsSearch, "search", "", "Title, location or university contains")
	f.StringVar(&propsSort, "sort", string(unireservas.SortRelevance), "Sort: relevancia, menor-preco, maior-preco, mais-recente, melhor-avaliado")
	f.StringSliceVar(&propsAmenities, "amenity", nil, "Require at least one of these amenities (repeatable)")

	c := propertiesCreateCmd.Flags()
	c.StringVar(&createTitle, "title", "", "Listing title")
	c.StringVar(&createType, "type", string(unireservas.TypeKitnet), "kitnet, quarto or apartamento")
	c.Float64Var(&createPrice, "price", 0, "Monthly price")
	c.StringVar(&createLocation, "location", "", "Neighbourhood and city")
	c.StringVar(&createUniversity, "university", "", "Nearest university")
	c.StringVar(&createDistance, "distance", "", "Distance to the university, e.g. \"500m\"")
	c.IntVar(&createCapacity, "capacity", 1, "Number of guests")
	c.StringVar(&createDescription, "description", "", "Free-text description")
	c.StringSliceVar(&createAmenities, "amenity", nil, "Amenities (repeatable)")

	propertiesCmd.AddCommand(
		propertiesListCmd,
		propertiesShowCmd,
		propertiesFavoriteCmd,
		propertiesSearchCmd,
		propertiesMineCmd,
		propertiesCreateCmd,
		propertiesDeleteCmd,
		propertiesUploadCmd,
	)
	rootCmd.AddCommand(propertiesCmd)
}

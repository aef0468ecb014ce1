package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	unireservas "github.com/unireservas/unireservas-go"
)

var (
	loginPassword string

	registerName       string
	registerPassword   string
	registerType       string
	registerUniversity string
	registerCompany    string

	whoamiJSON bool
)

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")

	registerCmd.Flags().StringVar(&registerName, "name", "", "Full name")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerType, "type", string(unireservas.UserStudent), "Account type: student or advertiser")
	registerCmd.Flags().StringVar(&registerUniversity, "university", "", "University (students)")
	registerCmd.Flags().StringVar(&registerCompany, "company", "", "Company name (advertisers)")
	_ = registerCmd.MarkFlagRequired("name")

	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Output raw JSON")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

// readPassword prompts on stderr and reads one line from stdin.
func readPassword(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("cannot read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the session locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, cfg, err := getAuthenticator()
		if err != nil {
			return err
		}
		password, err := readPassword(loginPassword)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(30 * time.Second)
		defer cancel()

		user, err := auth.Login(ctx, args[0], password)
		if err != nil {
			return friendly(err)
		}
		if err := storeSession(cfg, auth.Session()); err != nil {
			return err
		}

		fmt.Printf("Signed in as %s (%s)\n", user.Name, user.UserType)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, cfg, err := getAuthenticator()
		if err != nil {
			return err
		}
		password, err := readPassword(registerPassword)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(30 * time.Second)
		defer cancel()

		user, err := auth.Register(ctx, unireservas.RegisterRequest{
			Name:        registerName,
			Email:       args[0],
			Password:    password,
			UserType:    unireservas.UserType(registerType),
			University:  registerUniversity,
			CompanyName: registerCompany,
		})
		if err != nil {
			return friendly(err)
		}
		if err := storeSession(cfg, auth.Session()); err != nil {
			return err
		}

		fmt.Println("Registration successful!")
		fmt.Printf("  User ID: %s\n", user.ID)
		fmt.Printf("  Name:    %s\n", user.Name)
		fmt.Printf("  Type:    %s\n", user.UserType)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, session, cfg, err := getClient()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(10 * time.Second)
		defer cancel()

		if err := client.Auth.Logout(ctx); err != nil {
			logger.Debug("backend logout failed", "error", err)
		}
		session.Clear()
		if err := storeSession(cfg, session); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Verify the stored session and show the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, cfg, err := getAuthenticator()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(15 * time.Second)
		defer cancel()

		user, err := auth.Restore(ctx)
		// Restore may have refreshed or cleared the session.
		if saveErr := storeSession(cfg, auth.Session()); saveErr != nil {
			return saveErr
		}
		if err != nil {
			return friendly(err)
		}

		if whoamiJSON {
			return printJSON(user)
		}
		fmt.Printf("ID:         %s\n", user.ID)
		fmt.Printf("Name:       %s\n", user.Name)
		fmt.Printf("Email:      %s\n", user.Email)
		fmt.Printf("Type:       %s\n", user.UserType)
		if user.University != "" {
			fmt.Printf("University: %s\n", user.University)
		}
		if user.CompanyName != "" {
			fmt.Printf("Company:    %s\n", user.CompanyName)
		}
		return nil
	},
}

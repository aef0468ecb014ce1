package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// ============================================================================
// Config types
// ============================================================================

// Config is the CLI configuration stored in ~/.unireservas/config.toml.
type Config struct {
	Default ConfigDefault `toml:"default"`
	Session ConfigSession `toml:"session"`
}

type ConfigDefault struct {
	BaseURL        string `toml:"base_url"`
	FirebaseAPIKey string `toml:"firebase_api_key"`
	Timeout        string `toml:"timeout"`
}

// ConfigSession is the signed-in session, written by login and register.
type ConfigSession struct {
	Token        string `toml:"token"`
	RefreshToken string `toml:"refresh_token"`
	Expires      string `toml:"expires"`
	UserID       string `toml:"user_id"`
	UserName     string `toml:"user_name"`
	UserEmail    string `toml:"user_email"`
	UserType     string `toml:"user_type"`
}

// ============================================================================
// Config helpers
// ============================================================================

// configDir returns ~/.unireservas, creating it if needed.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".unireservas")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}
	return dir, nil
}

func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// loadConfig reads the config file. A missing file yields a zero Config.
func loadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	return &cfg, nil
}

func saveConfig(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}
	return nil
}

// setConfigValue sets a field using dot notation (e.g. "default.base_url").
func setConfigValue(cfg *Config, key, value string) error {
	section, field, ok := strings.Cut(key, ".")
	if !ok || field == "" {
		return fmt.Errorf("key must use dot notation: section.field (e.g. default.base_url)")
	}

	switch section {
	case "default":
		switch field {
		case "base_url":
			cfg.Default.BaseURL = value
		case "firebase_api_key":
			cfg.Default.FirebaseAPIKey = value
		case "timeout":
			cfg.Default.Timeout = value
		default:
			return fmt.Errorf("unknown field %q in section [default]", field)
		}
	case "session":
		switch field {
		case "token":
			cfg.Session.Token = value
		case "refresh_token":
			cfg.Session.RefreshToken = value
		case "expires":
			cfg.Session.Expires = value
		case "user_id":
			cfg.Session.UserID = value
		case "user_name":
			cfg.Session.UserName = value
		case "user_email":
			cfg.Session.UserEmail = value
		case "user_type":
			cfg.Session.UserType = value
		default:
			return fmt.Errorf("unknown field %q in section [session]", field)
		}
	default:
		return fmt.Errorf("unknown config section %q (valid: default, session)", section)
	}
	return nil
}

// ============================================================================
// Root command
// ============================================================================

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "unireservas",
	Short: "UniReservas marketplace CLI",
	Long:  "Command-line interface for the UniReservas student rental marketplace.\nBrowse listings, chat with landlords and manage reservations.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadEnv()
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogging()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API calls at debug level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

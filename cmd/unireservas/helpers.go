package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	unireservas "github.com/unireservas/unireservas-go"
)

// loadEnv reads .env from the working directory when there is one. Values
// already in the environment win.
func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not load .env", "error", err)
	}
}

// applyEnv overlays the UNIRESERVAS_* variables on cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("UNIRESERVAS_BASE_URL"); v != "" {
		cfg.Default.BaseURL = v
	}
	if v := os.Getenv("UNIRESERVAS_FIREBASE_API_KEY"); v != "" {
		cfg.Default.FirebaseAPIKey = v
	}
}

// loadSettings is loadConfig with environment overrides applied.
func loadSettings() (*Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func clientOptions(cfg *Config) []unireservas.ClientOption {
	opts := []unireservas.ClientOption{unireservas.WithLogger(logger)}
	if cfg.Default.BaseURL != "" {
		opts = append(opts, unireservas.WithBaseURL(cfg.Default.BaseURL))
	}
	if cfg.Default.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Default.Timeout); err == nil {
			opts = append(opts, unireservas.WithTimeout(d))
		} else {
			logger.Warn("ignoring invalid timeout", "timeout", cfg.Default.Timeout)
		}
	}
	return opts
}

// sessionFromConfig rebuilds the stored session.
func sessionFromConfig(cfg *Config) *unireservas.Session {
	s := unireservas.NewSession()
	if cfg.Session.Token == "" {
		return s
	}
	var user *unireservas.AuthUser
	if cfg.Session.UserID != "" {
		user = &unireservas.AuthUser{
			ID:       cfg.Session.UserID,
			Name:     cfg.Session.UserName,
			Email:    cfg.Session.UserEmail,
			UserType: unireservas.UserType(cfg.Session.UserType),
		}
	}
	s.Restore(unireservas.SessionState{Token: cfg.Session.Token, RefreshToken: cfg.Session.RefreshToken, User: user})
	return s
}

// storeSession copies s into cfg.Session and saves the file.
func storeSession(cfg *Config, s *unireservas.Session) error {
	st := s.Snapshot()
	cfg.Session = ConfigSession{Token: st.Token, RefreshToken: st.RefreshToken}
	if exp, ok := s.ExpiresAt(); ok {
		cfg.Session.Expires = exp.UTC().Format(time.RFC3339)
	}
	if st.User != nil {
		cfg.Session.UserID = st.User.ID
		cfg.Session.UserName = st.User.Name
		cfg.Session.UserEmail = st.User.Email
		cfg.Session.UserType = string(st.User.UserType)
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// getClient returns a client over the stored session. Anonymous use is
// allowed; calls that need a token fail with a sign-in hint.
func getClient() (*unireservas.Client, *unireservas.Session, *Config, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, nil, nil, err
	}
	session := sessionFromConfig(cfg)
	return unireservas.NewClient(session, clientOptions(cfg)...), session, cfg, nil
}

// getAuthenticator wires the identity provider and the backend around the
// stored session.
func getAuthenticator() (*unireservas.Authenticator, *Config, error) {
	client, session, cfg, err := getClient()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Default.FirebaseAPIKey == "" {
		return nil, nil, fmt.Errorf("no identity API key; run 'unireservas init <firebase-api-key>' first")
	}
	identity := unireservas.NewIdentityClient(cfg.Default.FirebaseAPIKey,
		unireservas.WithIdentityClientOptions(unireservas.WithLogger(logger)))
	return unireservas.NewAuthenticator(identity, client.Auth, session), cfg, nil
}

func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// friendly turns SDK errors into the message shown to the user.
func friendly(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(unireservas.UserMessage(err))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// maskKey shows the first 6 and last 4 characters of a secret.
func maskKey(key string) string {
	if len(key) <= 12 {
		if len(key) <= 4 {
			return "****"
		}
		return key[:2] + "..." + key[len(key)-2:]
	}
	return key[:6] + "..." + key[len(key)-4:]
}

func valueOrDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

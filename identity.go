package unireservas

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultIdentityURL    = "https://identitytoolkit.googleapis.com/v1"
	DefaultSecureTokenURL = "https://securetoken.googleapis.com/v1"
)

// IdentityClient talks to the Firebase identity REST endpoints. It issues the
// ID tokens the marketplace API accepts as bearer tokens.
type IdentityClient struct {
	apiKey string
	auth   *Client
	tokens *Client
}

type IdentityOption func(*identityConfig)

type identityConfig struct {
	identityURL    string
	secureTokenURL string
	clientOpts     []ClientOption
}

func WithIdentityURL(u string) IdentityOption {
	return func(c *identityConfig) { c.identityURL = u }
}

func WithSecureTokenURL(u string) IdentityOption {
	return func(c *identityConfig) { c.secureTokenURL = u }
}

// WithIdentityClientOptions passes options (HTTP client, logger, timeout) to
// the underlying clients.
func WithIdentityClientOptions(opts ...ClientOption) IdentityOption {
	return func(c *identityConfig) { c.clientOpts = append(c.clientOpts, opts...) }
}

func NewIdentityClient(apiKey string, opts ...IdentityOption) *IdentityClient {
	cfg := identityConfig{identityURL: DefaultIdentityURL, secureTokenURL: DefaultSecureTokenURL}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &IdentityClient{
		apiKey: apiKey,
		auth:   NewClient(nil, append(cfg.clientOpts, WithBaseURL(cfg.identityURL))...),
		tokens: NewClient(nil, append(cfg.clientOpts, WithBaseURL(cfg.secureTokenURL))...),
	}
}

// IdentityToken is the result of a sign-in, sign-up or refresh.
type IdentityToken struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email,omitempty"`
}

// Expiry returns when the ID token stops being valid, counted from issued.
func (t IdentityToken) Expiry(issued time.Time) time.Time {
	secs, err := strconv.Atoi(t.ExpiresIn)
	if err != nil {
		return time.Time{}
	}
	return issued.Add(time.Duration(secs) * time.Second)
}

func (i *IdentityClient) keyQuery() url.Values {
	q := url.Values{}
	q.Set("key", i.apiKey)
	return q
}

func (i *IdentityClient) credentials(ctx context.Context, op, endpoint, email, password string) (*IdentityToken, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalid("email", "email is required")
	}
	if password == "" {
		return nil, invalid("password", "password is required")
	}
	tok, err := call[IdentityToken](ctx, i.auth, request{
		op: op, method: http.MethodPost, path: "/accounts:" + endpoint, query: i.keyQuery(), auth: authNone,
		body: map[string]any{"email": email, "password": password, "returnSecureToken": true},
	})
	return tok, translateIdentityError(err)
}

// SignIn exchanges email and password for an ID token.
func (i *IdentityClient) SignIn(ctx context.Context, email, password string) (*IdentityToken, error) {
	return i.credentials(ctx, "sign in", "signInWithPassword", email, password)
}

// SignUp creates an identity account and signs it in.
func (i *IdentityClient) SignUp(ctx context.Context, email, password string) (*IdentityToken, error) {
	return i.credentials(ctx, "sign up", "signUp", email, password)
}

// Refresh trades a refresh token for a new ID token.
func (i *IdentityClient) Refresh(ctx context.Context, refreshToken string) (*IdentityToken, error) {
	if refreshToken == "" {
		return nil, invalid("refresh_token", "refresh token is required")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	resp, err := call[struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}](ctx, i.tokens, request{
		op: "refresh token", method: http.MethodPost, path: "/token", query: i.keyQuery(), form: form, auth: authNone,
	})
	if err != nil {
		return nil, translateIdentityError(err)
	}
	return &IdentityToken{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		LocalID:      resp.UserID,
	}, nil
}

var identityMessages = map[string]string{
	"EMAIL_NOT_FOUND":             "invalid email or password",
	"INVALID_PASSWORD":            "invalid email or password",
	"INVALID_LOGIN_CREDENTIALS":   "invalid email or password",
	"USER_DISABLED":               "this account has been disabled",
	"EMAIL_EXISTS":                "an account with this email already exists",
	"INVALID_EMAIL":               "the email address is malformed",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "too many attempts, try again later",
	"TOKEN_EXPIRED":               "the session has expired, sign in again",
	"INVALID_REFRESH_TOKEN":       "the session has expired, sign in again",
}

// translateIdentityError rewrites the provider's error codes (for example
// "WEAK_PASSWORD : Password should be at least 6 characters") into readable
// messages and keeps the code.
func translateIdentityError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	code, detail, _ := strings.Cut(apiErr.Message, " : ")
	code = strings.TrimSpace(code)
	out := &APIError{StatusCode: apiErr.StatusCode, Code: code, Message: apiErr.Message}
	if msg, ok := identityMessages[code]; ok {
		out.Message = msg
	} else if detail != "" {
		out.Message = strings.TrimSpace(detail)
	}
	return out
}

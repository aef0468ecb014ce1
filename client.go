// Package unireservas is the Go SDK for the UniReservas student rental
// marketplace API.
//
// Resources are reached through sub-clients hanging off a Client:
//
//	session := unireservas.NewSession()
//	client := unireservas.NewClient(session)
//
//	props, _ := client.Properties.List(ctx, nil)
//	visible := unireservas.ApplyFilters(props.Properties, unireservas.DefaultFilters())
//
//	chats := unireservas.NewChatSession(client.Chats)
//	defer chats.Close()
//	chats.Open(ctx, chat)
//
// Two stateful helpers sit on top of the resource clients: ChatSession, which
// caches chat lists and message pages and paginates backwards, and
// PropertyStore, which owns the property collection and the filter state for a
// browsing session.
package unireservas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultBaseURL = "https://backend-unireservas.onrender.com"
	DefaultTimeout = 30 * time.Second
)

// ============================================================================
// Token supply
// ============================================================================

// TokenSource supplies the bearer token. An empty string means there is no
// token.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// ============================================================================
// Client
// ============================================================================

type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger

	Properties   *PropertiesClient
	Chats        *ChatsClient
	Reservations *ReservationsClient
	Profiles     *ProfilesClient
	Rentals      *RentalsClient
	Auth         *AuthClient
}

type ClientOption func(*Client)

func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// WithLogger routes request logging to logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new API client. tokens may be nil for anonymous use;
// endpoints that need a token then fail with ErrNotAuthenticated.
func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Properties = &PropertiesClient{c: c}
	c.Chats = &ChatsClient{c: c}
	c.Reservations = &ReservationsClient{c: c}
	c.Profiles = &ProfilesClient{c: c}
	c.Rentals = &RentalsClient{c: c}
	c.Auth = &AuthClient{c: c}
	return c
}

// SetToken replaces the token source with a fixed token.
func (c *Client) SetToken(token string) {
	c.tokens = StaticToken(token)
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// ============================================================================
// Internal request helper
// ============================================================================

type authMode int

const (
	authRequired authMode = iota
	authOptional
	authNone
)

// request describes one API call. op names the operation in logs and is the
// fallback error message when the server gives none.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	form   url.Values
	auth   authMode
	token  string // overrides the token source when set
}

func (c *Client) doRequest(ctx context.Context, r request) ([]byte, error) {
	if r.form != nil {
		req, err := c.newRequest(ctx, r, strings.NewReader(r.form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return c.send(req, r)
	}

	var bodyReader io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, r, bodyReader)
	if err != nil {
		return nil, err
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, r)
}

// doMultipart posts files under a repeated form field.
func (c *Client) doMultipart(ctx context.Context, r request, field string, files []UploadFile) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write file data: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, r, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, r)
}

func (c *Client) newRequest(ctx context.Context, r request, body io.Reader) (*http.Request, error) {
	token := r.token
	if token == "" && r.auth != authNone {
		token = c.token()
	}
	if token == "" && r.auth == authRequired {
		return nil, ErrNotAuthenticated
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" && r.auth != authNone {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, r request) ([]byte, error) {
	log := c.logger.With("component", "api_client", "method", r.op)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", "path", r.path, "error", err)
		return nil, &NetworkError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: r.op, Err: fmt.Errorf("read response: %w", err)}
	}

	log.Debug("api call",
		"http_method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", req.Header.Get("X-Request-ID"),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, data, "failed to "+r.op)
		log.Warn("api returned error", "path", r.path, "status", resp.StatusCode, "error", apiErr.Message)
		return nil, apiErr
	}
	return data, nil
}

func decodeJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

func call[T any](ctx context.Context, c *Client, r request) (*T, error) {
	data, err := c.doRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	return decodeJSON[T](data)
}

// ============================================================================
// Response envelopes
// ============================================================================

// envelope is the {success, message, data} wrapper used by the reservation
// and auth endpoints.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *T     `json:"data,omitempty"`
}

// callEnvelope performs r and unwraps the envelope. A 2xx reply with
// success=false or no data is reported as an APIError carrying the message.
func callEnvelope[T any](ctx context.Context, c *Client, r request) (*T, error) {
	env, err := call[envelope[T]](ctx, c, r)
	if err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil {
		msg := env.Message
		if msg == "" {
			msg = "failed to " + r.op
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: msg}
	}
	return env.Data, nil
}

// decodeMaybeWrapped accepts either a bare object or one wrapped in
// {"data": ...}.
func decodeMaybeWrapped[T any](data []byte) (*T, error) {
	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && len(probe.Data) > 0 && string(probe.Data) != "null" {
		return decodeJSON[T](probe.Data)
	}
	return decodeJSON[T](data)
}

func pageQuery(page, perPage int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if perPage > 0 {
		q.Set("per_page", fmt.Sprint(perPage))
	}
	return q
}

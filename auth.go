package unireservas

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// AuthClient covers /api/auth-firebase, where the backend turns an identity
// token into a marketplace account.
type AuthClient struct{ c *Client }

const authPath = "/api/auth-firebase"

type verifyData struct {
	Valid bool      `json:"valid"`
	User  *AuthUser `json:"user"`
}

// Register creates the marketplace account for an identity user. req must
// carry the identity uid.
func (a *AuthClient) Register(ctx context.Context, req *RegisterRequest) (*AuthUser, error) {
	if req == nil {
		return nil, invalid("", "registration is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "name is required")
	}
	if req.UserType != UserStudent && req.UserType != UserAdvertiser {
		return nil, invalid("userType", "user type must be student or advertiser")
	}
	data, err := callEnvelope[struct {
		User        AuthUser `json:"user"`
		FirebaseUID string   `json:"firebase_uid"`
	}](ctx, a.c, request{
		op: "register", method: http.MethodPost, path: authPath + "/register", body: req, auth: authNone,
	})
	if err != nil {
		return nil, err
	}
	return &data.User, nil
}

// VerifyToken asks the backend whether token belongs to a known account.
// An empty token falls back to the client's token source. A rejected token
// yields ErrInvalidToken.
func (a *AuthClient) VerifyToken(ctx context.Context, token string) (*AuthUser, error) {
	data, err := callEnvelope[verifyData](ctx, a.c, request{
		op: "verify token", method: http.MethodPost, path: authPath + "/verify-token", token: token,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized ||
			apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusOK) {
			return nil, errors.Join(ErrInvalidToken, err)
		}
		return nil, err
	}
	if !data.Valid || data.User == nil {
		return nil, ErrInvalidToken
	}
	return data.User, nil
}

// Me returns the account record behind the current token.
func (a *AuthClient) Me(ctx context.Context) (*AuthUser, error) {
	return callEnvelope[AuthUser](ctx, a.c, request{
		op: "load account", method: http.MethodGet, path: authPath + "/me",
	})
}

func (a *AuthClient) Logout(ctx context.Context) error {
	_, err := a.c.doRequest(ctx, request{
		op: "log out", method: http.MethodPost, path: authPath + "/logout", auth: authOptional,
	})
	return err
}

// ============================================================================
// Authenticator
// ============================================================================

// Authenticator runs the sign-in flows across the identity provider and the
// backend and keeps a Session up to date.
type Authenticator struct {
	identity *IdentityClient
	api      *AuthClient
	session  *Session
	logger   *slog.Logger
}

func NewAuthenticator(identity *IdentityClient, api *AuthClient, session *Session) *Authenticator {
	return &Authenticator{
		identity: identity,
		api:      api,
		session:  session,
		logger:   api.c.logger.With("component", "authenticator"),
	}
}

// Session returns the session the authenticator maintains.
func (a *Authenticator) Session() *Session { return a.session }

// Login signs in with the identity provider, has the backend verify the new
// token and stores both in the session.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*AuthUser, error) {
	tok, err := a.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	user, err := a.api.VerifyToken(ctx, tok.IDToken)
	if err != nil {
		return nil, err
	}
	a.session.Set(tok.IDToken, tok.RefreshToken, user)
	a.logger.Info("signed in", "method", "Login", "user_id", user.ID)
	return user, nil
}

// Register creates the identity account, registers it with the backend and
// signs in.
func (a *Authenticator) Register(ctx context.Context, req RegisterRequest) (*AuthUser, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "name is required")
	}
	tok, err := a.identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	req.FirebaseUID = tok.LocalID
	user, err := a.api.Register(ctx, &req)
	if err != nil {
		return nil, err
	}
	a.session.Set(tok.IDToken, tok.RefreshToken, user)
	a.logger.Info("registered", "method", "Register", "user_id", user.ID)
	return user, nil
}

// Restore checks a session loaded from local storage. When the stored token
// has expired it is refreshed first if a refresh token is available. A token
// the backend rejects clears the session.
func (a *Authenticator) Restore(ctx context.Context) (*AuthUser, error) {
	if a.session.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	if a.session.Expired() {
		if err := a.Refresh(ctx); err != nil {
			a.session.Clear()
			return nil, errors.Join(ErrInvalidToken, err)
		}
	}
	user, err := a.api.VerifyToken(ctx, a.session.Token())
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			a.logger.Warn("stored session rejected", "method", "Restore")
			a.session.Clear()
		}
		return nil, err
	}
	a.session.SetUser(user)
	return user, nil
}

// Refresh swaps the session's ID token for a new one.
func (a *Authenticator) Refresh(ctx context.Context) error {
	tok, err := a.identity.Refresh(ctx, a.session.RefreshToken())
	if err != nil {
		return err
	}
	a.session.SetTokens(tok.IDToken, tok.RefreshToken)
	return nil
}

// Logout tells the backend and clears the session. The session is cleared
// even when the backend call fails.
func (a *Authenticator) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.session.Clear()
	if err != nil {
		a.logger.Debug("logout call failed", "method", "Logout", "error", err)
	}
	return err
}

package unireservas

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// ErrNotAuthenticated is returned before any request is made when an
	// operation needs a bearer token and none is available.
	ErrNotAuthenticated = errors.New("unireservas: authentication token not found")

	ErrNotFound     = errors.New("unireservas: not found")
	ErrUnauthorized = errors.New("unireservas: unauthorized")
	ErrForbidden    = errors.New("unireservas: forbidden")

	// ErrInvalidToken means the backend rejected the identity token during
	// verification. The local session is cleared when this happens.
	ErrInvalidToken = errors.New("unireservas: token invalid or expired")

	ErrNoChatOpen    = errors.New("unireservas: no chat is open")
	ErrSendInFlight  = errors.New("unireservas: a message is already being sent")
	ErrSessionClosed = errors.New("unireservas: chat session closed")
)

// ============================================================================
// APIError
// ============================================================================

// APIError is an application-level failure: the server answered with a
// non-2xx status. Message carries the server-provided text when there was
// one, otherwise a generic fallback for the operation.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is maps HTTP statuses onto the package sentinels so callers can write
// errors.Is(err, ErrNotFound).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// errorBody covers the error shapes the backend and the identity provider
// emit: {"detail": "..."}, {"detail": [{"msg": ...}]}, {"message": "..."} and
// {"error": {"code": ..., "message": "..."}}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseAPIError(status int, body []byte, fallback string) *APIError {
	apiErr := &APIError{StatusCode: status, Message: fallback}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return apiErr
	}

	if len(eb.Detail) > 0 {
		var s string
		if json.Unmarshal(eb.Detail, &s) == nil && s != "" {
			apiErr.Message = s
			return apiErr
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(eb.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				apiErr.Message = strings.Join(msgs, "; ")
				return apiErr
			}
		}
	}
	if eb.Error != nil && eb.Error.Message != "" {
		apiErr.Message = eb.Error.Message
		if eb.Error.Code != nil {
			apiErr.Code = fmt.Sprint(eb.Error.Code)
		}
		return apiErr
	}
	if eb.Message != "" {
		apiErr.Message = eb.Message
	}
	return apiErr
}

// ============================================================================
// NetworkError
// ============================================================================

// NetworkError is returned when no response was received at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ============================================================================
// ValidationError
// ============================================================================

// ValidationError is raised locally, before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ============================================================================
// User-facing messages
// ============================================================================

const (
	connectivityMessage = "Could not reach the server. Check your internet connection and try again."
	signInMessage       = "You need to sign in to do that."
)

// UserMessage renders err for display. Network failures get a connectivity
// hint, application errors surface the server text verbatim and validation
// errors surface their own message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return connectivityMessage
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrInvalidToken) {
		return signInMessage
	}
	return err.Error()
}

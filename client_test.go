package unireservas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestClientHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotAccept string
	r := newRouter()
	r.Get("/api/properties/my", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		writeJSON(w, http.StatusOK, []Property{{ID: "1"}})
	})
	client := newTestClient(t, r, "tok")

	props, err := client.Properties.Mine(context.Background())
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if len(props) != 1 || props[0].ID != "1" {
		t.Fatalf("unexpected properties: %+v", props)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if _, err := uuid.Parse(gotRequestID); err != nil {
		t.Errorf("X-Request-ID should be a uuid, got %q", gotRequestID)
	}
	if gotAccept != "application/json" {
		t.Errorf("unexpected Accept header %q", gotAccept)
	}
}

func TestClientRequiresTokenBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(nil, WithBaseURL(srv.URL+"/"))
	if _, err := client.Chats.Mine(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if called {
		t.Fatal("no request should be sent without a token")
	}
	if client.BaseURL() != srv.URL {
		t.Fatalf("trailing slash should be trimmed, got %q", client.BaseURL())
	}
}

func TestClientOptionalAuthOmitsHeader(t *testing.T) {
	var gotAuth string
	r := newRouter()
	r.Get("/api/properties/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, Property{ID: "7", Title: "Quarto"})
	})
	client := newTestClient(t, r, "")

	p, err := client.Properties.Get(context.Background(), "7")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Title != "Quarto" || gotAuth != "" {
		t.Fatalf("unexpected result %+v auth=%q", p, gotAuth)
	}
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantMsg  string
		wantCode string
		sentinel error
	}{
		{"detail string", http.StatusNotFound, map[string]any{"detail": "Propriedade não encontrada"}, "Propriedade não encontrada", "", ErrNotFound},
		{"detail list", http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]string{{"msg": "field required"}, {"msg": "value is not a valid integer"}}}, "field required; value is not a valid integer", "", nil},
		{"message field", http.StatusForbidden, map[string]any{"message": "Sem permissão"}, "Sem permissão", "", ErrForbidden},
		{"nested error", http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": "INVALID_PASSWORD"}}, "INVALID_PASSWORD", "400", nil},
		{"no body", http.StatusUnauthorized, nil, "failed to get property", "", ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter()
			r.Get("/api/properties/{id}", func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			})
			client := newTestClient(t, r, "")

			_, err := client.Properties.Get(context.Background(), "1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.wantMsg || apiErr.Code != tt.wantCode {
				t.Fatalf("unexpected error %+v", apiErr)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v to match %v", err, tt.sentinel)
			}
			if UserMessage(err) != tt.wantMsg {
				t.Fatalf("UserMessage should surface the server text, got %q", UserMessage(err))
			}
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(nil, WithBaseURL(url), WithTimeout(2*time.Second))
	_, err := client.Properties.Get(context.Background(), "1")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.Op != "get property" {
		t.Fatalf("unexpected op %q", netErr.Op)
	}
	if UserMessage(err) != connectivityMessage {
		t.Fatalf("expected connectivity hint, got %q", UserMessage(err))
	}
}

func TestEnvelopeFailureIsAPIError(t *testing.T) {
	r := newRouter()
	r.Get("/api/reservations/my", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Usuário sem reservas"})
	})
	r.Get("/api/reservations/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	client := newTestClient(t, r, "tok")

	_, err := client.Reservations.Mine(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Usuário sem reservas" {
		t.Fatalf("expected envelope message, got %v", err)
	}

	_, err = client.Reservations.Get(context.Background(), "r1")
	if !errors.As(err, &apiErr) || apiErr.Message != "failed to get reservation" {
		t.Fatalf("missing data should use the fallback, got %v", err)
	}
}

func TestPropertyPageAcceptsBareArray(t *testing.T) {
	r := newRouter()
	r.Get("/api/properties", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("per_page") != "10" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, []Property{{ID: "1"}, {ID: "2"}})
	})
	client := newTestClient(t, r, "")

	page, err := client.Properties.List(context.Background(), &ListOptions{Page: 2, PerPage: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 2 || page.TotalPages != 1 || len(page.Properties) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
}

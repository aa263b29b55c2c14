package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cratedig/cratedig/internal/shared"
	"github.com/cratedig/cratedig/internal/store"
	tu "github.com/cratedig/cratedig/internal/testing"
)

func TestNewTokenManager(t *testing.T) {
	db := tu.NewTestDB(t)
	st := store.New(db, "picker", nil)

	t.Run("Missing Client ID", func(t *testing.T) {
		_, err := NewTokenManager("", "", "secret", st, nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Missing Client Secret", func(t *testing.T) {
		_, err := NewTokenManager("", "id", "", st, nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		m, err := NewTokenManager("", "id", "secret", st, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.authURL != DefaultAuthURL {
			t.Errorf("expected default auth URL, got %q", m.authURL)
		}
		if m.httpClient != http.DefaultClient {
			t.Error("expected default HTTP client")
		}
	})
}

func TestTokenManagerRefresh(t *testing.T) {
	newStore := func(t *testing.T) *store.CredentialStore {
		return store.New(tu.NewTestDB(t), "picker", nil)
	}

	t.Run("Success", func(t *testing.T) {
		var gotPath, gotContentType, gotGrant, gotID, gotSecret string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotContentType = r.Header.Get("Content-Type")
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse form: %v", err)
			}
			gotGrant = r.PostFormValue("grant_type")
			gotID = r.PostFormValue("client_id")
			gotSecret = r.PostFormValue("client_secret")

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "fresh-token", "token_type": "Bearer", "expires_in": 3600}`))
		}))
		defer server.Close()

		st := newStore(t)
		m, err := NewTokenManager(server.URL, "my-id", "my-secret", st, server.Client())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := m.Refresh(context.Background()); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}

		if gotPath != "/api/token" {
			t.Errorf("expected /api/token, got %q", gotPath)
		}
		if !strings.HasPrefix(gotContentType, "application/x-www-form-urlencoded") {
			t.Errorf("unexpected content type %q", gotContentType)
		}
		if gotGrant != "client_credentials" {
			t.Errorf("expected client_credentials grant, got %q", gotGrant)
		}
		if gotID != "my-id" || gotSecret != "my-secret" {
			t.Errorf("unexpected client credentials %q / %q", gotID, gotSecret)
		}

		token, ok := st.Current()
		if !ok {
			t.Fatal("expected token to be persisted")
		}
		if token != "fresh-token" {
			t.Errorf("expected 'fresh-token', got %q", token)
		}
	})

	t.Run("Status Mapping", func(t *testing.T) {
		cases := []struct {
			name   string
			status int
			body   string
			want   error
		}{
			{"Forbidden", http.StatusForbidden, `{"error": {"status": 403, "message": "forbidden"}}`, shared.ErrBadOAuth},
			{"Rate Limited", http.StatusTooManyRequests, `{"error": {"status": 429, "message": "slow down"}}`, shared.ErrRateLimited},
			{"Server Error", http.StatusInternalServerError, `{"error": {"status": 500, "message": "boom"}}`, shared.ErrUpstream},
			{"Bad Error Envelope", http.StatusInternalServerError, `<html>boom</html>`, shared.ErrInvalidResponse},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tc.status)
					w.Write([]byte(tc.body))
				}))
				defer server.Close()

				st := newStore(t)
				m, err := NewTokenManager(server.URL, "id", "secret", st, server.Client())
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				err = m.Refresh(context.Background())
				if !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
				if _, ok := st.Current(); ok {
					t.Error("expected no token to be persisted on failure")
				}
			})
		}
	})

	t.Run("Upstream Message Carried", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"error": {"status": 502, "message": "catalog offline"}}`))
		}))
		defer server.Close()

		m, err := NewTokenManager(server.URL, "id", "secret", newStore(t), server.Client())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err = m.Refresh(context.Background())
		if err == nil || !strings.Contains(err.Error(), "catalog offline") {
			t.Errorf("expected server message in error, got %v", err)
		}
	})
}

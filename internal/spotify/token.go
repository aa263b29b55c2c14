package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cratedig/cratedig/internal/models"
	"github.com/cratedig/cratedig/internal/shared"
	"github.com/cratedig/cratedig/internal/store"
)

// TokenManager obtains an access token via the OAuth client-credentials grant
// and publishes it into a [store.CredentialStore].
//
// No retry or backoff is performed: rate-limit and transient failures surface
// to the caller, which owns the retry policy.
type TokenManager struct {
	authURL      string
	clientID     string
	clientSecret string
	store        *store.CredentialStore
	httpClient   *http.Client
}

// NewTokenManager creates a TokenManager against authURL (default
// [DefaultAuthURL]) writing into st. A nil client defaults to
// [http.DefaultClient].
func NewTokenManager(authURL, clientID, clientSecret string, st *store.CredentialStore, client *http.Client) (*TokenManager, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &TokenManager{
		authURL:      authURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		store:        st,
		httpClient:   client,
	}, nil
}

// Refresh exchanges the client credentials for a fresh access token and
// persists it with the server-reported expiry.
//
// Status mapping: 200 success, 403 [shared.ErrBadOAuth] (re-authenticating
// won't help), 429 [shared.ErrRateLimited], anything else carries the
// server's error message as [shared.ErrUpstream].
func (m *TokenManager) Refresh(ctx context.Context) error {
	endpoint, err := url.Parse(m.authURL + "/api/token")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidEndpoint, err)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var token models.TokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
		}
		if err := m.store.Persist(token.AccessToken, token.ExpiresIn); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
		return nil
	case http.StatusForbidden:
		return shared.ErrBadOAuth
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	default:
		return upstreamError(resp.Body)
	}
}

package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/cratedig/cratedig/internal/models"
	"github.com/cratedig/cratedig/internal/shared"
	"github.com/cratedig/cratedig/internal/store"
)

// SearchCache executes track searches against the catalog and memoizes
// results per raw query string for the lifetime of the instance.
//
// Entries are keyed by the untrimmed query and are never evicted, so a
// repeated query returns the first answer even if the catalog would now
// answer differently. The cache lookup runs before the credential check: a
// cached query succeeds with no valid credential and no network access.
type SearchCache struct {
	baseURL    string
	store      *store.CredentialStore
	httpClient *http.Client

	mu    sync.RWMutex
	cache map[string][]models.Track
}

// NewSearchCache creates a SearchCache against baseURL (default
// [DefaultBaseURL]) reading credentials from st. A nil client defaults to
// [http.DefaultClient].
func NewSearchCache(baseURL string, st *store.CredentialStore, client *http.Client) *SearchCache {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &SearchCache{
		baseURL:    baseURL,
		store:      st,
		httpClient: client,
		cache:      make(map[string][]models.Track),
	}
}

// Fetch returns the tracks matching query.
//
// The wire query value is whitespace-trimmed; the cache key is the query
// exactly as given. Status mapping: 200 success, 401 [shared.ErrBadToken],
// 403 [shared.ErrBadOAuth], 429 [shared.ErrRateLimited], anything else
// carries the server's error message as [shared.ErrUpstream]. A missing or
// expired stored credential fails with [shared.ErrNoToken] before any
// request is made.
func (s *SearchCache) Fetch(ctx context.Context, query string) ([]models.Track, error) {
	if tracks, ok := s.cached(query); ok {
		return tracks, nil
	}

	token, ok := s.store.Current()
	if !ok {
		return nil, shared.ErrNoToken
	}

	endpoint, err := url.Parse(s.baseURL + "/v1/search")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidEndpoint, err)
	}
	params := endpoint.Query()
	params.Set("q", strings.TrimSpace(query))
	params.Set("type", "track")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var response models.SearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
		}
		s.put(query, response.Tracks.Items)
		return response.Tracks.Items, nil
	case http.StatusUnauthorized:
		return nil, shared.ErrBadToken
	case http.StatusForbidden:
		return nil, shared.ErrBadOAuth
	case http.StatusTooManyRequests:
		return nil, shared.ErrRateLimited
	default:
		return nil, upstreamError(resp.Body)
	}
}

func (s *SearchCache) cached(query string) ([]models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tracks, ok := s.cache[query]
	return tracks, ok
}

// put stores the result under the untrimmed key. Concurrent fetches for the
// same key may both reach here; last writer wins, both results are correct.
func (s *SearchCache) put(query string, tracks []models.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[query] = tracks
}

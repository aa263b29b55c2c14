package tasks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cratedig/cratedig/internal/download"
	"github.com/cratedig/cratedig/internal/models"
	"github.com/cratedig/cratedig/internal/shared"
	"github.com/cratedig/cratedig/internal/spotify"
	"github.com/cratedig/cratedig/internal/store"
	tu "github.com/cratedig/cratedig/internal/testing"
)

// catalogFixture is a single test server standing in for the auth host, the
// search API and the preview CDN at once.
type catalogFixture struct {
	server     *httptest.Server
	engine     *PickerEngine
	store      *store.CredentialStore
	tokenCalls atomic.Int64
}

func mpegFrame() []byte {
	frame := make([]byte, 256)
	frame[0] = 0xFF
	frame[1] = 0xFB
	return frame
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	f := &catalogFixture{}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token":
			f.tokenCalls.Add(1)
			w.Write([]byte(`{"access_token": "fresh-token", "token_type": "Bearer", "expires_in": 3600}`))
		case "/v1/search":
			w.Write([]byte(`{"tracks": {"items": [{"id": "track-1", "name": "Paranoid", "preview_url": "` + f.server.URL + `/previews/track-1.mp3"}], "total": 1}}`))
		case "/previews/track-1.mp3":
			w.Write(mpegFrame())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.server.Close)

	f.store = store.New(tu.NewTestDB(t), "picker", nil)

	tokens, err := spotify.NewTokenManager(f.server.URL, "id", "secret", f.store, f.server.Client())
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}
	search := spotify.NewSearchCache(f.server.URL, f.store, f.server.Client())
	pipeline, err := download.NewPipeline(download.Opts{
		ScratchDir: t.TempDir(),
		HTTPClient: f.server.Client(),
	})
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}

	f.engine = NewPickerEngine(f.store, tokens, search, pipeline, nil)
	return f
}

func TestPickerEngineSearch(t *testing.T) {
	t.Run("Refreshes When No Credential", func(t *testing.T) {
		f := newCatalogFixture(t)

		tracks, err := f.engine.Search(context.Background(), "paranoid")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}

		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if f.tokenCalls.Load() != 1 {
			t.Errorf("expected 1 token refresh, counted %d", f.tokenCalls.Load())
		}
		if token, _ := f.store.Current(); token != "fresh-token" {
			t.Errorf("expected refreshed token to be persisted, got %q", token)
		}
	})

	t.Run("Skips Refresh When Credential Current", func(t *testing.T) {
		f := newCatalogFixture(t)
		if err := f.store.Persist("existing-token", 3600); err != nil {
			t.Fatalf("failed to seed credential: %v", err)
		}

		if _, err := f.engine.Search(context.Background(), "paranoid"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if f.tokenCalls.Load() != 0 {
			t.Errorf("expected no token refresh, counted %d", f.tokenCalls.Load())
		}
	})

	t.Run("Refresh Failure Surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": {"status": 403, "message": "forbidden"}}`))
		}))
		defer server.Close()

		st := store.New(tu.NewTestDB(t), "picker", nil)
		tokens, err := spotify.NewTokenManager(server.URL, "id", "secret", st, server.Client())
		if err != nil {
			t.Fatalf("failed to create token manager: %v", err)
		}
		engine := NewPickerEngine(st, tokens, spotify.NewSearchCache(server.URL, st, server.Client()), nil, nil)

		_, err = engine.Search(context.Background(), "paranoid")
		if !errors.Is(err, shared.ErrBadOAuth) {
			t.Errorf("expected ErrBadOAuth, got %v", err)
		}
	})
}

func TestPickerEngineDownload(t *testing.T) {
	t.Run("Single Track", func(t *testing.T) {
		f := newCatalogFixture(t)
		track := models.Track{ID: "track-1", PreviewURL: f.server.URL + "/previews/track-1.mp3"}

		path, err := f.engine.Download(context.Background(), track)
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}
		tu.AssertFileExists(t, path)
	})

	t.Run("Bulk With Mixed Outcomes", func(t *testing.T) {
		f := newCatalogFixture(t)
		tracks := []models.Track{
			{ID: "track-1", Name: "Paranoid", PreviewURL: f.server.URL + "/previews/track-1.mp3"},
			{ID: "track-2", Name: "No Preview"},
		}

		results := f.engine.DownloadAll(context.Background(), tracks, DownloadAllOpts{})

		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].Track.ID != "track-1" || results[1].Track.ID != "track-2" {
			t.Error("expected results in input order")
		}
		if results[0].Err != nil {
			t.Errorf("expected first download to succeed, got %v", results[0].Err)
		}
		tu.AssertFileExists(t, results[0].Path)
		if !errors.Is(results[1].Err, shared.ErrMissingPreview) {
			t.Errorf("expected ErrMissingPreview, got %v", results[1].Err)
		}
		if results[1].Path != "" {
			t.Errorf("expected empty path on failure, got %q", results[1].Path)
		}
	})
}

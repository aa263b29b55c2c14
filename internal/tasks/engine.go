// package tasks orchestrates the picker flow: ensure a current credential,
// search the catalog, acquire preview artifacts.
//
// The engine owns sequencing only; each step's semantics live in the
// component that implements it. Bulk downloads run through a rate-limited
// worker pool and report per-track results instead of failing wholesale.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/cratedig/cratedig/internal/download"
	"github.com/cratedig/cratedig/internal/models"
	"github.com/cratedig/cratedig/internal/shared"
	"github.com/cratedig/cratedig/internal/spotify"
	"github.com/cratedig/cratedig/internal/store"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// PickerEngine wires the credential store, token manager, search cache and
// download pipeline into the caller-facing operations.
type PickerEngine struct {
	store    *store.CredentialStore
	tokens   *spotify.TokenManager
	search   *spotify.SearchCache
	pipeline *download.Pipeline
	logger   *log.Logger
}

// NewPickerEngine creates a PickerEngine from its collaborators.
// A nil logger defaults to a stderr logger.
func NewPickerEngine(st *store.CredentialStore, tokens *spotify.TokenManager, search *spotify.SearchCache, pipeline *download.Pipeline, logger *log.Logger) *PickerEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PickerEngine{
		store:    st,
		tokens:   tokens,
		search:   search,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Search runs a track search, refreshing the access token first when the
// store holds no current credential. A cached query succeeds without either
// the refresh or the request.
func (e *PickerEngine) Search(ctx context.Context, query string) ([]models.Track, error) {
	if _, ok := e.store.Current(); !ok {
		e.logger.Info("no current credential, refreshing token")
		if err := e.tokens.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}
	}
	return e.search.Fetch(ctx, query)
}

// Download acquires the finalized preview artifact for track.
func (e *PickerEngine) Download(ctx context.Context, track models.Track) (string, error) {
	return e.pipeline.Acquire(ctx, track)
}

// DownloadResult reports the outcome of one track in a bulk download.
type DownloadResult struct {
	Track models.Track
	Path  string // Finalized artifact path, empty on failure
	Err   error
}

// DownloadAllOpts contains configuration for bulk downloads.
type DownloadAllOpts struct {
	NumWorkers int     // Concurrent workers (default: 3, capped at 10)
	RateLimit  float64 // Fetches per second (default: 5)
}

// DownloadAll acquires previews for all tracks concurrently with rate
// limiting. Individual failures don't stop the batch; results are returned
// in input order.
func (e *PickerEngine) DownloadAll(ctx context.Context, tracks []models.Track, opts DownloadAllOpts) []DownloadResult {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	results := make([]DownloadResult, len(tracks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.NumWorkers)

	for i, track := range tracks {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				results[i] = DownloadResult{Track: track, Err: err}
				return nil
			}

			path, err := e.pipeline.Acquire(ctx, track)
			if err != nil {
				e.logger.Warn("download failed", "track", track.ID, "error", err)
			}
			results[i] = DownloadResult{Track: track, Path: path, Err: err}
			return nil
		})
	}

	g.Wait()
	return results
}

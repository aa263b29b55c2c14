package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/cratedig/cratedig/internal/models"
	"github.com/cratedig/cratedig/internal/shared"
	"github.com/cratedig/cratedig/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Grab searches the catalog and downloads the picked result's preview as a
// tagged local artifact. With --all every result with a preview is
// downloaded through the rate-limited worker pool.
func (r *Runner) Grab(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: configure credentials.spotify in config.toml", shared.ErrMissingCredentials)
	}

	tracks, err := r.engine.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(tracks) == 0 {
		return r.writePlainln("No tracks found for %q", query)
	}

	if cmd.Bool("all") {
		return r.grabAll(ctx, cmd, tracks)
	}

	pick := int(cmd.Int("pick"))
	if pick < 1 || pick > len(tracks) {
		return fmt.Errorf("%w: pick must be between 1 and %d", shared.ErrInvalidArgument, len(tracks))
	}

	track := tracks[pick-1]
	r.logger.Info("downloading preview", "track", track.ID, "name", track.Name)

	path, err := r.engine.Download(ctx, track)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	return r.writePlainln("✓ %s by %s\n  %s", track.Name, track.ArtistNames(), path)
}

func (r *Runner) grabAll(ctx context.Context, cmd *cli.Command, tracks []models.Track) error {
	opts := tasks.DownloadAllOpts{
		NumWorkers: r.config.Download.NumWorkers,
		RateLimit:  r.config.Download.RateLimit,
	}
	if workers := int(cmd.Int("workers")); workers > 0 {
		opts.NumWorkers = workers
	}

	results := r.engine.DownloadAll(ctx, tracks, opts)

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			if errors.Is(res.Err, shared.ErrMissingPreview) {
				r.writePlainln("- %s by %s: no preview", res.Track.Name, res.Track.ArtistNames())
			} else {
				r.writePlainln("✗ %s by %s: %v", res.Track.Name, res.Track.ArtistNames(), res.Err)
			}
			continue
		}
		r.writePlainln("✓ %s by %s\n  %s", res.Track.Name, res.Track.ArtistNames(), res.Path)
	}

	if failed > 0 {
		return r.writePlainln("%d of %d downloads failed", failed, len(results))
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cratedig/cratedig/internal/formatter"
	"github.com/cratedig/cratedig/internal/models"
	"github.com/cratedig/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the catalog and prints the matching tracks.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: configure credentials.spotify in config.toml", shared.ErrMissingCredentials)
	}

	r.logger.Info("searching catalog", "query", query)

	tracks, err := r.engine.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	return r.renderTracks(cmd, query, tracks)
}

// renderTracks writes tracks in the requested format, to a file when
// --output is set.
func (r *Runner) renderTracks(cmd *cli.Command, query string, tracks []models.Track) error {
	var data []byte
	var err error

	switch cmd.String("format") {
	case "csv":
		data, err = formatter.TracksToCSV(tracks)
		if err != nil {
			return fmt.Errorf("failed to format tracks: %w", err)
		}
	case "markdown":
		data = formatter.TracksToMarkdown(query, tracks)
	default:
		data = formatter.TracksToText(tracks)
	}

	if outputPath := cmd.String("output"); outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return r.writePlainln("✓ Wrote %d tracks to %s", len(tracks), outputPath)
	}

	return r.writePlain("%s", data)
}

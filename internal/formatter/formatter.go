// package formatter provides functions to export search results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/cratedig/cratedig/internal/models"
)

// TracksToCSV converts search results to CSV with columns: ID, Title, Artists, Album, Duration, Explicit, Preview
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artists", "Album", "Duration", "Explicit", "Preview"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			track.ArtistNames(),
			track.Album.Name,
			FormatDuration(track.DurationMS),
			strconv.FormatBool(track.Explicit),
			track.PreviewURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown converts search results to a Markdown table headed by the query.
func TracksToMarkdown(query string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Search: %s\n\n", query))
	buf.WriteString(fmt.Sprintf("%d tracks\n\n", len(tracks)))
	buf.WriteString("| # | Title | Artists | Album | Duration |\n")
	buf.WriteString("|---|-------|---------|-------|----------|\n")

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, track.Name, track.ArtistNames(), track.Album.Name, FormatDuration(track.DurationMS)))
	}

	return buf.Bytes()
}

// TracksToText converts search results to aligned plain text, one track per line.
func TracksToText(tracks []models.Track) []byte {
	var buf bytes.Buffer

	for i, track := range tracks {
		marker := " "
		if track.PreviewURL == "" {
			marker = "-" // no preview available
		}
		buf.WriteString(fmt.Sprintf("%3d. [%s] %s by %s (%s) %s\n",
			i+1, track.ID, track.Name, track.ArtistNames(), FormatDuration(track.DurationMS), marker))
	}

	return buf.Bytes()
}

// FormatDuration renders a millisecond duration as m:ss.
func FormatDuration(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

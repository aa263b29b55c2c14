// package models defines the catalog data model and its wire shapes.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package models

import "strings"

// Artist represents an artist object of the catalog.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Artwork represents a cover art object of the catalog.
type Artwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Album represents an album object of the catalog.
// Images holds the cover art in various sizes, widest first.
type Album struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Images []Artwork `json:"images"`
}

// Track represents a track object of the catalog.
// PreviewURL links a short MP3 preview of the track and may be empty.
type Track struct {
	ID         string   `json:"id"`
	PreviewURL string   `json:"preview_url"`
	Name       string   `json:"name"`
	DurationMS int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
	Album      Album    `json:"album"`
	Artists    []Artist `json:"artists"`
}

// ArtworkVariant selects one of the three cover art sizes the catalog provides.
type ArtworkVariant int

const (
	// ArtworkSmall is the 64px variant.
	ArtworkSmall ArtworkVariant = iota
	// ArtworkRegular is the 300px variant.
	ArtworkRegular
	// ArtworkLarge is the 640px variant.
	ArtworkLarge
)

// Size returns the variant's width in pixels.
func (v ArtworkVariant) Size() int {
	switch v {
	case ArtworkSmall:
		return 64
	case ArtworkRegular:
		return 300
	default:
		return 640
	}
}

// ArtistNames returns the track's artist names joined by ", ".
func (t Track) ArtistNames() string {
	names := make([]string, len(t.Artists))
	for i, artist := range t.Artists {
		names[i] = artist.Name
	}
	return strings.Join(names, ", ")
}

// ArtworkURL returns the URL of the album image whose width matches the
// variant exactly. The second return value is false when no image matches.
func (t Track) ArtworkURL(variant ArtworkVariant) (string, bool) {
	for _, image := range t.Album.Images {
		if image.Width == variant.Size() {
			return image.URL, true
		}
	}
	return "", false
}

// Metadata is the descriptive tag bundle injected into a downloaded artifact.
// Artwork holds the raw image bytes of the large cover variant, or nil when
// the artwork could not be resolved.
type Metadata struct {
	Title   string
	Album   string
	Artists string
	Artwork []byte
}

// Metadata derives the tag bundle for the track. Artwork bytes are resolved
// separately by the caller since fetching them requires network access.
func (t Track) Metadata() Metadata {
	return Metadata{
		Title:   t.Name,
		Album:   t.Album.Name,
		Artists: t.ArtistNames(),
	}
}

// TracksPage represents the paginated tracks object of a search response.
type TracksPage struct {
	Items  []Track `json:"items"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
	Total  int     `json:"total"`
}

// SearchResponse represents a search response object of the catalog.
type SearchResponse struct {
	Tracks TracksPage `json:"tracks"`
}

// TokenResponse represents a token response object of the auth endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ErrorObject represents the error payload of a non-200 response. Status is
// also returned in the response header; range 400-599.
type ErrorObject struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response object of the catalog.
type ErrorResponse struct {
	Error ErrorObject `json:"error"`
}

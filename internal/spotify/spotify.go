// package spotify implements the catalog clients: the client-credentials
// token exchange and the memoizing track search.
//
// Endpoints and response shapes follow
// https://developer.spotify.com/documentation/web-api/reference/
package spotify

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cratedig/cratedig/internal/models"
	"github.com/cratedig/cratedig/internal/shared"
)

const (
	// DefaultBaseURL is the production catalog API host.
	DefaultBaseURL = "https://api.spotify.com"
	// DefaultAuthURL is the production account/token host.
	DefaultAuthURL = "https://accounts.spotify.com"

	acceptHeader = "application/json; charset=utf-8"
)

// upstreamError decodes the catalog's error envelope from a non-200 body and
// returns the server message wrapped in [shared.ErrUpstream]. When the
// envelope itself doesn't decode, the decode failure propagates as
// [shared.ErrInvalidResponse].
func upstreamError(body io.Reader) error {
	var envelope models.ErrorResponse
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
	}
	return fmt.Errorf("%w: %s", shared.ErrUpstream, envelope.Error.Message)
}

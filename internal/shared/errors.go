package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Token and catalog errors
	ErrNoToken         = fmt.Errorf("no valid access token cached")
	ErrBadToken        = fmt.Errorf("bad or expired token")
	ErrBadOAuth        = fmt.Errorf("bad OAuth request")
	ErrRateLimited     = fmt.Errorf("rate limit exceeded")
	ErrInvalidEndpoint = fmt.Errorf("invalid endpoint URL")
	ErrInvalidResponse = fmt.Errorf("invalid response body")
	ErrUpstream        = fmt.Errorf("upstream error")

	// Download and export errors
	ErrMissingPreview       = fmt.Errorf("track has no preview URL")
	ErrInvalidPreviewURL    = fmt.Errorf("invalid preview URL")
	ErrIncompatibleExport   = fmt.Errorf("incompatible export options")
	ErrInvalidExportSession = fmt.Errorf("couldn't create an export session")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

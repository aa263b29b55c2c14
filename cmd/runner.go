package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/cratedig/cratedig/internal/download"
	"github.com/cratedig/cratedig/internal/shared"
	"github.com/cratedig/cratedig/internal/spotify"
	"github.com/cratedig/cratedig/internal/store"
	"github.com/cratedig/cratedig/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
	store  *store.CredentialStore
	tokens *spotify.TokenManager
	engine *tasks.PickerEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
	HTTPClient *http.Client
}

// NewRunner creates a new Runner with the provided configuration.
//
// When the config carries no Spotify credentials the catalog-facing engine is
// left unset; commands that need it report [shared.ErrMissingCredentials].
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}

	if opts.DB != nil {
		r.store = store.New(opts.DB, opts.Config.Storage.TokenNamespace, nil)
	}

	creds := opts.Config.Credentials.Spotify
	if r.store == nil || creds.ClientID == "" || creds.ClientSecret == "" {
		return r, nil
	}

	tokens, err := spotify.NewTokenManager(opts.Config.API.AuthURL, creds.ClientID, creds.ClientSecret, r.store, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}
	r.tokens = tokens

	search := spotify.NewSearchCache(opts.Config.API.BaseURL, r.store, opts.HTTPClient)

	pipeline, err := download.NewPipeline(download.Opts{
		ScratchDir: opts.Config.Storage.ScratchDir,
		HTTPClient: opts.HTTPClient,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create download pipeline: %w", err)
	}

	r.engine = tasks.NewPickerEngine(r.store, tokens, search, pipeline, opts.Logger)
	return r, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

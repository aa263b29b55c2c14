// package download implements the preview acquisition pipeline.
//
// Acquisition runs fetch → export (metadata injection) → finalize with a
// temp-then-atomic-rename discipline at every visible path: the finalized
// artifact either exists completely or not at all. Artifacts are
// content-addressed by track identity, so an existing finalized file is
// trusted without re-validation.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/cratedig/cratedig/internal/models"
	"github.com/cratedig/cratedig/internal/shared"
	"golang.org/x/sync/singleflight"
)

// State identifies a stage of a pipeline invocation.
type State int

const (
	StatePending State = iota
	StateFetching
	StateExporting
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateExporting:
		return "exporting"
	case StateFinalized:
		return "finalized"
	default:
		return "failed"
	}
}

// Event reports a state transition of one acquisition. Err is non-nil only
// for StateFailed.
type Event struct {
	TrackID string
	State   State
	Err     error
}

// Pipeline downloads track previews into a scratch directory and produces
// finalized, metadata-tagged MP3 artifacts.
//
// Concurrent Acquire calls for the same track identity share one in-flight
// run via singleflight; calls for different identities never interfere
// because every path is derived from the identity.
type Pipeline struct {
	scratchDir string
	httpClient *http.Client
	tagger     Tagger
	logger     *log.Logger
	onEvent    func(Event)
	group      singleflight.Group
}

// Opts contains configuration options for creating a Pipeline.
type Opts struct {
	ScratchDir string       // Directory for intermediate and finalized artifacts
	HTTPClient *http.Client // Defaults to http.DefaultClient
	Logger     *log.Logger  // Defaults to a stderr logger
	OnEvent    func(Event)  // Optional state transition callback
}

// NewPipeline creates a Pipeline, creating the scratch directory if needed.
func NewPipeline(opts Opts) (*Pipeline, error) {
	if opts.ScratchDir == "" {
		opts.ScratchDir = filepath.Join(os.TempDir(), "cratedig")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	if err := os.MkdirAll(opts.ScratchDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	return &Pipeline{
		scratchDir: opts.ScratchDir,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		onEvent:    opts.OnEvent,
	}, nil
}

// FinalizedPath returns the deterministic artifact path for a track identity.
func (p *Pipeline) FinalizedPath(trackID string) string {
	return filepath.Join(p.scratchDir, trackID+".mp3")
}

// rawPath returns the intermediate raw-audio path for a track identity.
func (p *Pipeline) rawPath(trackID string) string {
	return filepath.Join(p.scratchDir, trackID+".src.mp3")
}

// Acquire produces the finalized local artifact for track and returns its
// path. An artifact already present at the finalized path is returned
// immediately without network access.
func (p *Pipeline) Acquire(ctx context.Context, track models.Track) (string, error) {
	destination := p.FinalizedPath(track.ID)
	if _, err := os.Stat(destination); err == nil {
		return destination, nil
	}

	result, err, _ := p.group.Do(track.ID, func() (any, error) {
		return p.run(ctx, track)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (p *Pipeline) run(ctx context.Context, track models.Track) (string, error) {
	destination := p.FinalizedPath(track.ID)
	// Re-check: a racing caller may have finalized between the caller's
	// stat and this run being scheduled.
	if _, err := os.Stat(destination); err == nil {
		return destination, nil
	}

	p.emit(track.ID, StatePending, nil)

	if track.PreviewURL == "" {
		return "", p.fail(track.ID, shared.ErrMissingPreview)
	}
	previewURL, err := url.ParseRequestURI(track.PreviewURL)
	if err != nil {
		return "", p.fail(track.ID, fmt.Errorf("%w: %v", shared.ErrInvalidPreviewURL, err))
	}

	p.emit(track.ID, StateFetching, nil)

	source := p.rawPath(track.ID)
	if _, err := os.Stat(source); err == nil {
		// Stale intermediate from a prior failed attempt.
		if err := os.Remove(source); err != nil {
			return "", p.fail(track.ID, fmt.Errorf("failed to remove stale intermediate: %w", err))
		}
	}
	if err := p.fetch(ctx, previewURL.String(), source); err != nil {
		return "", p.fail(track.ID, err)
	}

	p.emit(track.ID, StateExporting, nil)

	meta := track.Metadata()
	meta.Artwork = p.fetchArtwork(ctx, track)
	if err := p.export(source, destination, meta); err != nil {
		// Failed exports leave the raw intermediate behind; the next
		// attempt removes it before refetching.
		return "", p.fail(track.ID, err)
	}

	if err := os.Remove(source); err != nil {
		p.logger.Warn("failed to remove intermediate", "track", track.ID, "error", err)
	}

	p.emit(track.ID, StateFinalized, nil)
	return destination, nil
}

// fetch downloads url into destination via a uuid-named staging file and an
// atomic rename, so destination never holds partial bytes.
func (p *Pipeline) fetch(ctx context.Context, url, destination string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("preview fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("preview fetch failed: HTTP %d", resp.StatusCode)
	}

	staging := p.stagingPath()
	f, err := os.Create(staging)
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(staging)
		return fmt.Errorf("preview fetch failed: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	if err := os.Rename(staging, destination); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to move fetched bytes: %w", err)
	}
	return nil
}

// fetchArtwork resolves the large cover variant for the track. Failures are
// swallowed: the artifact is produced without artwork rather than failing
// the whole acquisition.
func (p *Pipeline) fetchArtwork(ctx context.Context, track models.Track) []byte {
	artworkURL, ok := track.ArtworkURL(models.ArtworkLarge)
	if !ok {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		p.logger.Warn("skipping artwork", "track", track.ID, "error", err)
		return nil
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("skipping artwork", "track", track.ID, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("skipping artwork", "track", track.ID, "status", resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Warn("skipping artwork", "track", track.ID, "error", err)
		return nil
	}
	return data
}

// export verifies compatibility, copies the raw audio to a staging file,
// injects metadata, and atomically renames it onto destination.
func (p *Pipeline) export(source, destination string, meta models.Metadata) error {
	if !p.tagger.Compatible(source) {
		return shared.ErrIncompatibleExport
	}

	staging := p.stagingPath()
	if err := copyFile(source, staging); err != nil {
		return fmt.Errorf("failed to stage export: %w", err)
	}

	if err := p.tagger.WriteTags(staging, meta); err != nil {
		os.Remove(staging)
		return err
	}

	if err := os.Rename(staging, destination); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return nil
}

// stagingPath returns a fresh collision-free temporary path inside the
// scratch area. Renames from it stay on one filesystem.
func (p *Pipeline) stagingPath() string {
	return filepath.Join(p.scratchDir, "."+shared.GenerateID()+".part")
}

func (p *Pipeline) fail(trackID string, err error) error {
	p.emit(trackID, StateFailed, err)
	return err
}

func (p *Pipeline) emit(trackID string, state State, err error) {
	if p.onEvent != nil {
		p.onEvent(Event{TrackID: trackID, State: state, Err: err})
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

package main

import (
	"context"
	"fmt"

	"github.com/cratedig/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

// TokenRefresh performs the client-credentials exchange and persists the
// resulting access token.
func (r *Runner) TokenRefresh(ctx context.Context, cmd *cli.Command) error {
	if r.tokens == nil {
		return fmt.Errorf("%w: configure credentials.spotify in config.toml", shared.ErrMissingCredentials)
	}

	r.logger.Info("refreshing access token")
	if err := r.tokens.Refresh(ctx); err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	return r.writePlainln("✓ Token refreshed")
}

// TokenStatus reports whether a current credential is cached.
func (r *Runner) TokenStatus(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: run 'cratedig setup' first", shared.ErrMissingConfig)
	}

	if _, ok := r.store.Current(); ok {
		return r.writePlainln("✓ A valid access token is cached")
	}
	return r.writePlainln("✗ No valid access token (run 'cratedig token refresh')")
}

// TokenClear removes the persisted credential.
func (r *Runner) TokenClear(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: run 'cratedig setup' first", shared.ErrMissingConfig)
	}

	if err := r.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return r.writePlainln("✓ Token cleared")
}

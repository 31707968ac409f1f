package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mgx/internal/services"
	"github.com/desertthunder/mgx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthConnect runs the browser authorization handshake for a provider.
func (r *Runner) AuthConnect(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.StringArg("provider")
	if provider == "" {
		return fmt.Errorf("%w: provider argument", shared.ErrMissingArgument)
	}

	role := cmd.String("role")
	r.logger.Info("starting authorization", "provider", provider, "role", role)

	credential, err := r.channel.Authorize(ctx, provider, role)
	if err != nil {
		return err
	}

	// Later commands in the same process reuse the granted token
	if svc, ok := r.engine.(*services.EngineService); ok {
		svc.SetTokenSource(credential.TokenSource())
	}

	if cmd.Bool("json") {
		return r.writeJSON(credential, true)
	}

	r.writePlain("✓ Authorized with %s\n", credential.Provider)
	if credential.User != nil {
		r.writePlain("User: %s\n", credential.User.DisplayName)
	}
	if len(credential.Playlists) > 0 {
		r.writePlainln("Playlists available:")
		for _, pl := range credential.Playlists {
			r.writePlain("  • %s (%d songs)\n", pl.Name, pl.SongCount)
		}
	}
	return nil
}

// AuthStatus checks engine availability by calling the /health endpoint.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking engine status")

	resp, err := r.raw.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: engine unavailable: %v", shared.ErrNetwork, err)
	}

	if !resp.IsJSON {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return r.writePlain("✓ Engine is healthy\nStatus: %s\n", string(resp.Body))
		}
		return fmt.Errorf("%w: status %d", shared.ErrNetwork, resp.StatusCode)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		healthData, ok := resp.JSONData.(map[string]any)
		if !ok {
			return r.writePlain("✓ Engine is healthy\n")
		}

		status, ok := healthData["status"].(string)
		if !ok {
			status = "unknown"
		}

		r.writePlain("✓ Engine is healthy\n")
		r.writePlain("Status: %s\n", status)
		if providers, ok := healthData["providers"].([]any); ok {
			r.writePlain("Providers: %d connected\n", len(providers))
		}
		return nil
	}

	return fmt.Errorf("%w: status %d", shared.ErrNetwork, resp.StatusCode)
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mgx/internal/auth"
	"github.com/desertthunder/mgx/internal/formatter"
	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/services"
	"github.com/desertthunder/mgx/internal/session"
	"github.com/desertthunder/mgx/internal/shared"
	"github.com/desertthunder/mgx/internal/tasks"
	"github.com/desertthunder/mgx/internal/ui"
	"github.com/urfave/cli/v3"
)

// MigratePreview uploads a library export and shows what the engine parsed.
func (r *Runner) MigratePreview(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file argument", shared.ErrMissingArgument)
	}

	preview, err := r.orchestrator(nil).Preview(ctx, path, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(preview, true)
	}

	r.writePlainHeader("Library Preview")
	r.writePlain("Songs: %d\n", preview.TotalSongs)
	r.writePlain("Playlists: %d\n", preview.Playlists)
	if preview.SampleSong != nil {
		r.writePlain("Sample: %s - %s\n", preview.SampleSong.Artist, preview.SampleSong.Title)
	}
	return nil
}

// MigrateRun drives a full migration, resolving decisions at the prompt.
func (r *Runner) MigrateRun(ctx context.Context, cmd *cli.Command) error {
	opts, err := r.runOptions(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("accept-best") {
		opts.Decide = acceptBest
	} else {
		opts.Decide = r.promptDecision()
	}

	if err := r.connectSource(ctx, opts.SourceProvider); err != nil {
		return err
	}

	attempts, db, err := r.history()
	if err != nil {
		r.logger.Warn("history unavailable, continuing without it", "error", err)
	} else {
		defer db.Close()
	}

	orchestrator := r.orchestrator(recorderOrNil(attempts, err))

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, runErr := orchestrator.Run(ctx, opts, progress)
	close(progress)
	<-done

	if runErr != nil {
		return runErr
	}

	r.writePlainHeader("Migration Complete")
	r.writePlain("Session: %s\n", result.SessionID)
	r.writeTotals(result.Report.Totals)
	return nil
}

// MigrateWatch runs a migration inside the interactive TUI.
func (r *Runner) MigrateWatch(ctx context.Context, cmd *cli.Command) error {
	opts, err := r.runOptions(cmd)
	if err != nil {
		return err
	}

	if err := r.connectSource(ctx, opts.SourceProvider); err != nil {
		return err
	}

	attempts, db, err := r.history()
	if err != nil {
		r.logger.Warn("history unavailable, continuing without it", "error", err)
	} else {
		defer db.Close()
	}

	model := ui.NewModel(ctx, r.orchestrator(recorderOrNil(attempts, err)), opts)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// MigrateStatus fetches the current snapshot for a session.
func (r *Runner) MigrateStatus(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session argument", shared.ErrMissingArgument)
	}

	snapshot, err := r.engine.Status(ctx, sessionID)
	if err != nil {
		return err
	}

	return r.writeJSON(snapshot, cmd.Bool("pretty"))
}

// MigrateDecide submits one decision for a session awaiting it.
func (r *Runner) MigrateDecide(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session argument", shared.ErrMissingArgument)
	}

	choice := models.Choice(cmd.String("choice"))
	candidateID := cmd.String("candidate")

	snapshot, err := r.engine.Status(ctx, sessionID)
	if err != nil {
		return err
	}

	gateway := session.NewGateway(r.engine, r.logger)
	gateway.Hold(snapshot)

	outcome, err := gateway.Submit(ctx, choice, candidateID)
	if err != nil {
		return err
	}

	if outcome.MigrationComplete {
		r.writePlain("✓ Decision submitted, migration complete\n")
	} else {
		r.writePlain("✓ Decision submitted, session is %s\n", outcome.Session.Status)
	}
	return nil
}

// MigrateResults fetches the final report for a completed session.
func (r *Runner) MigrateResults(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session argument", shared.ErrMissingArgument)
	}

	report, err := r.engine.Results(ctx, sessionID)
	if err != nil {
		return err
	}

	if format := cmd.String("format"); format != "" {
		written, err := formatter.WriteReport(report, format, cmd.String("output"))
		if err != nil {
			return err
		}
		return r.writePlain("✓ Report saved to %s\n", written)
	}

	return r.writeJSON(report, cmd.Bool("pretty"))
}

// MigrateHistory lists locally recorded migration attempts.
func (r *Runner) MigrateHistory(ctx context.Context, cmd *cli.Command) error {
	attempts, db, err := r.history()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{
		"status":          cmd.String("status"),
		"source_provider": cmd.String("source"),
		"dest_provider":   cmd.String("dest"),
	}

	entries, err := attempts.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, len(entries))
		for i, entry := range entries {
			rows[i] = map[string]any{
				"session_id":      entry.SessionID(),
				"source_provider": entry.SourceProvider(),
				"dest_provider":   entry.DestProvider(),
				"playlist_name":   entry.PlaylistName(),
				"status":          entry.Status(),
				"totals":          entry.Totals(),
				"started_at":      entry.StartedAt(),
				"finished_at":     entry.FinishedAt(),
			}
		}
		return r.writeJSON(rows, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No migration attempts recorded\n")
	}

	r.writePlainHeader("Migration History")
	for _, entry := range entries {
		totals := entry.Totals()
		r.writePlain("%s  %s → %s  [%s]  %d/%d songs  %s\n",
			entry.StartedAt().Format("2006-01-02 15:04"),
			entry.SourceProvider(),
			entry.DestProvider(),
			entry.Status(),
			totals.Processed,
			totals.Total,
			entry.SessionID(),
		)
	}
	return nil
}

// runOptions assembles the shared run configuration for run and watch.
func (r *Runner) runOptions(cmd *cli.Command) (tasks.RunOptions, error) {
	path := cmd.StringArg("file")
	if path == "" {
		return tasks.RunOptions{}, fmt.Errorf("%w: file argument", shared.ErrMissingArgument)
	}

	config := models.MigrationConfig{
		HardThreshold:   r.config.Matching.HardThreshold,
		RejectThreshold: r.config.Matching.RejectThreshold,
		MaxCandidates:   r.config.Matching.MaxCandidates,
		DryRun:          r.config.Matching.DryRun,
	}
	if cmd.IsSet("hard-threshold") {
		config.HardThreshold = cmd.Float("hard-threshold")
	}
	if cmd.IsSet("reject-threshold") {
		config.RejectThreshold = cmd.Float("reject-threshold")
	}
	if cmd.IsSet("max-candidates") {
		config.MaxCandidates = int(cmd.Int("max-candidates"))
	}
	if cmd.IsSet("dry-run") {
		config.DryRun = cmd.Bool("dry-run")
	}
	if err := config.Validate(); err != nil {
		return tasks.RunOptions{}, err
	}

	return tasks.RunOptions{
		SourceProvider: cmd.String("source"),
		DestProvider:   cmd.String("dest"),
		PayloadPath:    path,
		PlaylistName:   cmd.String("playlist"),
		Config:         &config,
	}, nil
}

// connectSource authorizes the source provider when it needs a grant.
func (r *Runner) connectSource(ctx context.Context, provider string) error {
	if provider == "" || provider == auth.ProviderLocalFiles {
		return nil
	}

	credential, err := r.channel.Authorize(ctx, provider, auth.RoleSource)
	if err != nil {
		return err
	}
	if svc, ok := r.engine.(*services.EngineService); ok {
		svc.SetTokenSource(credential.TokenSource())
	}
	return nil
}

// promptDecision resolves pending decisions interactively on the terminal.
func (r *Runner) promptDecision() tasks.DecisionFunc {
	reader := bufio.NewReader(r.input)
	return func(ctx context.Context, pending *models.PendingDecision) (models.Choice, string, error) {
		r.writePlainln("Needs review: %s - %s", pending.Song.Artist, pending.Song.Title)
		for i, c := range pending.Candidates {
			r.writePlain("  [%d] %s - %s (match %.0f%%)\n", i+1, c.Artist, c.Title, c.MatchScore*100)
		}
		r.writePlain("Choose [a]ccept best, [s]kip, or a candidate number: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read answer: %w", err)
		}

		answer := strings.TrimSpace(line)
		switch answer {
		case "a", "":
			return models.ChoiceAccept, "", nil
		case "s":
			return models.ChoiceReject, "", nil
		}

		idx, err := strconv.Atoi(answer)
		if err != nil || idx < 1 || idx > len(pending.Candidates) {
			return "", "", fmt.Errorf("%w: answer %q", shared.ErrInvalidArgument, answer)
		}
		return models.ChoiceManual, pending.Candidates[idx-1].ID, nil
	}
}

// acceptBest resolves every pending decision by accepting the best match.
func acceptBest(ctx context.Context, pending *models.PendingDecision) (models.Choice, string, error) {
	return models.ChoiceAccept, "", nil
}

// recorderOrNil avoids a typed-nil recorder when history failed to open.
func recorderOrNil(attempts tasks.AttemptRecorder, err error) tasks.AttemptRecorder {
	if err != nil {
		return nil
	}
	return attempts
}

func (r *Runner) writeTotals(totals models.Totals) {
	r.writePlain("Processed: %d/%d\n", totals.Processed, totals.Total)
	r.writePlain("Accepted: %d  Rejected: %d  Manual: %d\n", totals.Accepted, totals.Rejected, totals.Manual)
}

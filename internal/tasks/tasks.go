// package tasks orchestrates migration jobs against the remote engine.
//
// The core abstraction is Orchestrator, which drives one migration end to end:
// upload, start, poll, decide, results. Operations emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/services"
	"github.com/desertthunder/mgx/internal/session"
	"github.com/desertthunder/mgx/internal/shared"
)

// DecisionFunc resolves one pending decision, returning the choice and, for
// manual choices, the chosen candidate ID. Returning an error aborts the run
// and leaves the job awaiting on the engine.
type DecisionFunc func(ctx context.Context, pending *models.PendingDecision) (models.Choice, string, error)

// AttemptRecorder persists migration attempt history.
//
// A nil recorder disables history without affecting the run.
type AttemptRecorder interface {
	Create(attempt *models.Attempt) error
	Update(attempt *models.Attempt) error
}

// RunOptions configures one migration run.
type RunOptions struct {
	SourceProvider string
	DestProvider   string
	PayloadPath    string                  // library payload file; unused when a preview already loaded one
	PlaylistName   string                  // optional label recorded in history
	Config         *models.MigrationConfig // nil uses the engine defaults
	Decide         DecisionFunc            // required: resolves awaiting_decision handoffs
}

// RunResult is the outcome of a completed migration run.
type RunResult struct {
	SessionID string
	Session   *models.Session
	Report    *models.MigrationResult
}

// Orchestrator drives migration jobs from upload through final results.
//
// The library payload is parsed once and retained in memory between the
// preview and the start call, so the started job always operates on exactly
// the bytes the user previewed.
type Orchestrator struct {
	engine   services.EngineClient
	poller   *session.Poller
	gateway  *session.Gateway
	attempts AttemptRecorder
	logger   *log.Logger

	payload     []byte
	payloadPath string
}

// NewOrchestrator creates an orchestrator around the given engine client.
func NewOrchestrator(engine services.EngineClient, poller *session.Poller, gateway *session.Gateway, attempts AttemptRecorder, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Orchestrator{
		engine:   engine,
		poller:   poller,
		gateway:  gateway,
		attempts: attempts,
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (o *Orchestrator) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Preview uploads the library payload for parsing and retains the bytes for
// a subsequent Run, so the job starts from the previewed payload rather than
// re-reading a file that may have changed.
func (o *Orchestrator) Preview(ctx context.Context, path string, progress chan<- ProgressUpdate) (*models.UploadPreview, error) {
	payload, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}

	o.sendProgress(progress, uploadUpdate(path))
	preview, err := o.engine.Upload(ctx, payload)
	if err != nil {
		return nil, err
	}

	o.payload = payload
	o.payloadPath = path
	o.logger.Info("payload previewed", "path", path, "songs", preview.TotalSongs)
	return preview, nil
}

// Run drives one migration from start to a terminal state.
//
// Pending decisions are resolved through opts.Decide; polling and decision
// submission never overlap for the session. Poll failures and job failures
// abort the run with the poller's error.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*RunResult, error) {
	if opts.Decide == nil {
		return nil, fmt.Errorf("%w: decision callback", shared.ErrMissingArgument)
	}

	payload, err := o.loadPayload(opts.PayloadPath)
	if err != nil {
		return nil, err
	}

	config := models.DefaultMigrationConfig()
	if opts.Config != nil {
		config = *opts.Config
	}

	o.sendProgress(progress, startJobUpdate())
	started, err := o.engine.StartMigration(ctx, payload, config)
	if err != nil {
		return nil, err
	}
	o.logger.Info("migration started", "session", started.SessionID, "dry_run", config.DryRun)

	attempt := o.recordStart(started.SessionID, opts)

	current, err := o.drive(ctx, started.SessionID, opts, progress)
	if err != nil {
		o.recordFinish(attempt, current, err)
		return nil, err
	}

	o.sendProgress(progress, fetchResultsUpdate(started.SessionID))
	report, err := o.engine.Results(ctx, started.SessionID)
	if err != nil {
		o.recordFinish(attempt, current, nil)
		return nil, err
	}

	o.recordFinish(attempt, current, nil)
	o.sendProgress(progress, completeUpdate(report))

	return &RunResult{
		SessionID: started.SessionID,
		Session:   current,
		Report:    report,
	}, nil
}

// drive alternates between the poll loop and the decision gateway until the
// session reaches a terminal state, returning the final snapshot.
func (o *Orchestrator) drive(ctx context.Context, sessionID string, opts RunOptions, progress chan<- ProgressUpdate) (*models.Session, error) {
	for {
		halted, err := o.pollOnce(ctx, sessionID, progress)
		if err != nil {
			return halted, err
		}
		if halted == nil {
			return nil, fmt.Errorf("%w: poll loop stopped before any snapshot", shared.ErrNetwork)
		}

		switch halted.Status {
		case models.StatusCompleted:
			return halted, nil

		case models.StatusAwaitingDecision:
			o.gateway.Hold(halted)
			o.sendProgress(progress, awaitDecisionUpdate(halted))

			choice, candidateID, err := opts.Decide(ctx, halted.PendingDecision)
			if err != nil {
				return halted, fmt.Errorf("decision aborted: %w", err)
			}

			o.sendProgress(progress, submitDecisionUpdate(choice))
			outcome, err := o.gateway.Submit(ctx, choice, candidateID)
			if err != nil {
				return halted, err
			}

			if outcome.MigrationComplete {
				return outcome.Session, nil
			}
			// Resume polling from the decision's snapshot so the next poll
			// cannot regress behind it
			o.poller.Resume(outcome.Session)

		default:
			// Poller halted cleanly without reaching a terminal state,
			// which only happens on an external stop or context cancel
			return halted, fmt.Errorf("%w: polling stopped before a terminal state", shared.ErrSessionActive)
		}
	}
}

// pollOnce runs the poll loop until it halts and returns the halt snapshot.
func (o *Orchestrator) pollOnce(ctx context.Context, sessionID string, progress chan<- ProgressUpdate) (*models.Session, error) {
	type halt struct {
		session *models.Session
		err     error
	}
	haltCh := make(chan halt, 1)

	err := o.poller.Start(ctx, sessionID,
		func(snapshot *models.Session) {
			o.sendProgress(progress, pollUpdate(snapshot))
		},
		func(snapshot *models.Session, err error) {
			haltCh <- halt{session: snapshot, err: err}
		},
	)
	if err != nil {
		return nil, err
	}

	h := <-haltCh
	return h.session, h.err
}

// loadPayload returns the retained preview payload or reads one from path.
func (o *Orchestrator) loadPayload(path string) ([]byte, error) {
	if path != "" && path != o.payloadPath {
		return shared.VerifyAndReadFile(path)
	}
	if o.payload != nil {
		return o.payload, nil
	}
	if path == "" {
		return nil, fmt.Errorf("%w: payload path (run preview first or pass a file)", shared.ErrMissingArgument)
	}
	return shared.VerifyAndReadFile(path)
}

// recordStart persists a new history attempt, returning nil when history is
// disabled or the write fails. History failures never abort a run.
func (o *Orchestrator) recordStart(sessionID string, opts RunOptions) *models.Attempt {
	if o.attempts == nil {
		return nil
	}

	attempt := models.NewAttempt(0, sessionID, opts.SourceProvider, opts.DestProvider)
	attempt.SetPlaylistName(opts.PlaylistName)
	if err := o.attempts.Create(attempt); err != nil {
		o.logger.Warn("failed to record attempt", "session", sessionID, "err", err)
		return nil
	}
	return attempt
}

// recordFinish updates the history attempt with the final state.
func (o *Orchestrator) recordFinish(attempt *models.Attempt, final *models.Session, runErr error) {
	if o.attempts == nil || attempt == nil {
		return
	}

	status := models.StatusError
	totals := models.Totals{}
	message := ""
	if final != nil {
		status = final.Status
		totals = final.Totals
		message = final.ErrorMessage
	}
	if runErr != nil {
		if !status.Terminal() {
			status = models.StatusError
		}
		message = runErr.Error()
	}

	attempt.Finish(status, totals, message)
	if err := o.attempts.Update(attempt); err != nil {
		o.logger.Warn("failed to update attempt", "session", attempt.SessionID(), "err", err)
	}
}

// Status fetches the current snapshot for a session.
func (o *Orchestrator) Status(ctx context.Context, sessionID string) (*models.Session, error) {
	return o.engine.Status(ctx, sessionID)
}

// Results fetches the final report for a session.
func (o *Orchestrator) Results(ctx context.Context, sessionID string) (*models.MigrationResult, error) {
	return o.engine.Results(ctx, sessionID)
}

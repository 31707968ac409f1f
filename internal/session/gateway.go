package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/services"
	"github.com/desertthunder/mgx/internal/shared"
)

// Gateway submits human decisions for the song currently blocking a job.
//
// The gateway holds the awaiting snapshot the poller handed off. A submission
// is only allowed while the held session is awaiting a decision, so a stale
// caller cannot double-submit or race a finished job. At most one submission
// is in flight at a time.
type Gateway struct {
	engine services.EngineClient
	logger *log.Logger

	mu      sync.Mutex
	session *models.Session
}

// NewGateway creates a decision gateway.
func NewGateway(engine services.EngineClient, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Gateway{engine: engine, logger: logger}
}

// Hold stores the awaiting snapshot handed off by the poller.
func (g *Gateway) Hold(session *models.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = session.Clone()
}

// Pending returns the decision blocking the held session, or nil when
// nothing is awaiting review.
func (g *Gateway) Pending() *models.PendingDecision {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil || g.session.Status != models.StatusAwaitingDecision {
		return nil
	}
	return g.session.Clone().PendingDecision
}

// Submit resolves the pending decision and returns the engine's outcome.
//
// choice accept takes the job's best candidate, reject skips the item, and
// manual uses the specific candidate named by candidateID (required for
// manual, ignored otherwise). Returns [shared.ErrStaleDecision] when the held
// session is not awaiting a decision and [shared.ErrInvalidArgument] when a
// manual candidate is not among the pending candidates.
//
// On success the held session advances via the reducer; when the outcome
// reports the migration complete, the caller finishes up instead of resuming
// polling.
func (g *Gateway) Submit(ctx context.Context, choice models.Choice, candidateID string) (*models.DecisionOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session == nil || g.session.Status != models.StatusAwaitingDecision {
		return nil, fmt.Errorf("%w: nothing to decide", shared.ErrStaleDecision)
	}
	if !choice.Valid() {
		return nil, fmt.Errorf("%w: decision %q", shared.ErrInvalidArgument, choice)
	}

	if choice == models.ChoiceManual {
		if candidateID == "" {
			return nil, fmt.Errorf("%w: candidate id is required for manual decisions", shared.ErrMissingArgument)
		}
		if !g.holdsCandidate(candidateID) {
			return nil, fmt.Errorf("%w: candidate %s is not pending", shared.ErrInvalidArgument, candidateID)
		}
	} else {
		candidateID = ""
	}

	outcome, err := g.engine.SubmitDecision(ctx, models.DecisionRequest{
		SessionID:   g.session.ID,
		Decision:    choice,
		CandidateID: candidateID,
	})
	if err != nil {
		return nil, err
	}

	reduced, err := Apply(g.session, DecisionEvent(outcome.Session))
	if err != nil {
		return nil, err
	}
	g.session = reduced
	g.logger.Info("decision submitted",
		"session", reduced.ID,
		"choice", choice,
		"complete", outcome.MigrationComplete,
	)

	return outcome, nil
}

// holdsCandidate reports whether the held pending decision lists the candidate.
// Callers must hold g.mu.
func (g *Gateway) holdsCandidate(candidateID string) bool {
	if g.session.PendingDecision == nil {
		return false
	}
	for _, c := range g.session.PendingDecision.Candidates {
		if c.ID == candidateID {
			return true
		}
	}
	return false
}

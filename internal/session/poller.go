package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/services"
	"github.com/desertthunder/mgx/internal/shared"
)

// UpdateFunc receives each reduced session snapshot while polling continues.
type UpdateFunc func(session *models.Session)

// HaltFunc receives the final snapshot when polling stops.
//
// session is the last known snapshot (nil if none was ever fetched) and err
// is non-nil when polling stopped because of a failure. A session in
// awaiting_decision means control should pass to the decision gateway.
type HaltFunc func(session *models.Session, err error)

// Poller drives the status fetch loop for one session at a time.
//
// Fetches are strictly sequential: the next tick is only scheduled after the
// previous fetch and its callback complete, so snapshots can never be applied
// out of order. Every snapshot passes through the reducer, which enforces the
// transition and counter invariants before the update callback sees it.
type Poller struct {
	engine   services.EngineClient
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	current *models.Session
}

// NewPoller creates a poller fetching on the given cadence.
//
// A non-positive interval falls back to one second, the engine's observed
// cadence.
func NewPoller(engine services.EngineClient, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Poller{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

// Start begins polling the given session in a background goroutine.
//
// Returns [shared.ErrPollerRunning] if a loop is already active. onUpdate
// fires for every snapshot while the session keeps processing; onHalt fires
// exactly once when the loop stops, whether by terminal status, pending
// decision, fetch failure, or [Poller.Stop].
func (p *Poller) Start(ctx context.Context, sessionID string, onUpdate UpdateFunc, onHalt HaltFunc) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}
	if onHalt == nil {
		return fmt.Errorf("%w: halt callback", shared.ErrMissingArgument)
	}

	p.mu.Lock()
	if p.done != nil {
		p.mu.Unlock()
		return shared.ErrPollerRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer p.clear()
		p.loop(loopCtx, sessionID, onUpdate, onHalt)
	}()

	return nil
}

// Stop halts the poll loop and waits for it to finish.
//
// Safe to call multiple times and when the poller never started. After Stop
// returns no further callbacks fire, making the stop effective rather than
// advisory.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the poll loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

// Session returns the last reduced snapshot, or nil before the first fetch.
func (p *Poller) Session() *models.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Poller) clear() {
	p.mu.Lock()
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()
}

// Resume seeds the poller with an externally obtained snapshot, such as the
// session returned by a decision submission, so the next loop continues from
// it instead of an empty machine.
func (p *Poller) Resume(session *models.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = session.Clone()
}

func (p *Poller) loop(ctx context.Context, sessionID string, onUpdate UpdateFunc, onHalt HaltFunc) {
	for {
		session, err := p.engine.Status(ctx, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				// Stopped mid-fetch: report the stop, not the aborted request
				p.logger.Debug("poll loop stopped", "session", sessionID)
				onHalt(p.Session(), nil)
				return
			}
			// Fail fast: a fetch error halts the loop, no retry
			p.logger.Error("status fetch failed", "session", sessionID, "err", err)
			onHalt(p.Session(), err)
			return
		}

		p.mu.Lock()
		reduced, err := Apply(p.current, PollEvent(session))
		if err == nil {
			p.current = reduced
		}
		p.mu.Unlock()
		if err != nil {
			p.logger.Error("rejected snapshot", "session", sessionID, "err", err)
			onHalt(p.Session(), err)
			return
		}

		switch reduced.Status {
		case models.StatusCompleted:
			p.logger.Info("migration completed", "session", sessionID, "accepted", reduced.Totals.Accepted)
			onHalt(reduced, nil)
			return
		case models.StatusError:
			msg := reduced.ErrorMessage
			if msg == "" {
				msg = "no detail reported"
			}
			onHalt(reduced, fmt.Errorf("%w: %s", shared.ErrJobReported, msg))
			return
		case models.StatusAwaitingDecision:
			// Hand control to the decision gateway; polling and decisions
			// are mutually exclusive for a session
			p.logger.Info("session awaiting decision", "session", sessionID, "song", reduced.PendingDecision.Song.Title)
			onHalt(reduced, nil)
			return
		}

		if onUpdate != nil {
			onUpdate(reduced)
		}

		select {
		case <-ctx.Done():
			p.logger.Debug("poll loop stopped", "session", sessionID)
			onHalt(p.Session(), nil)
			return
		case <-time.After(p.interval):
		}
	}
}

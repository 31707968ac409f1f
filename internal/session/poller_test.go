package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/shared"
	tu "github.com/desertthunder/mgx/internal/testing"
)

// scriptedEngine replays a fixed sequence of snapshots, repeating the last
// one once the script is exhausted.
func scriptedEngine(t *testing.T, script ...*models.Session) *tu.MockEngine {
	t.Helper()

	var mu sync.Mutex
	call := 0
	return &tu.MockEngine{
		StatusFunc: func(ctx context.Context, sessionID string) (*models.Session, error) {
			mu.Lock()
			defer mu.Unlock()
			idx := call
			if idx >= len(script) {
				idx = len(script) - 1
			}
			call++
			return script[idx].Clone(), nil
		},
	}
}

type haltRecord struct {
	session *models.Session
	err     error
}

// runPoller polls until the loop halts and returns updates plus the halt.
func runPoller(t *testing.T, p *Poller, sessionID string) ([]*models.Session, haltRecord) {
	t.Helper()

	var mu sync.Mutex
	var updates []*models.Session
	haltCh := make(chan haltRecord, 1)

	err := p.Start(context.Background(), sessionID,
		func(s *models.Session) {
			mu.Lock()
			updates = append(updates, s)
			mu.Unlock()
		},
		func(s *models.Session, err error) {
			haltCh <- haltRecord{session: s, err: err}
		},
	)
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	select {
	case halt := <-haltCh:
		mu.Lock()
		defer mu.Unlock()
		return updates, halt
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for poller to halt")
		return nil, haltRecord{}
	}
}

func TestPoller(t *testing.T) {
	interval := 5 * time.Millisecond

	t.Run("Polls Until Completed", func(t *testing.T) {
		engine := scriptedEngine(t,
			processing("s1", 2),
			processing("s1", 5),
			terminal("s1", models.StatusCompleted),
		)
		p := NewPoller(engine, interval, nil)

		updates, halt := runPoller(t, p, "s1")

		if halt.err != nil {
			t.Fatalf("expected clean halt, got %v", halt.err)
		}
		if halt.session.Status != models.StatusCompleted {
			t.Errorf("expected completed, got %s", halt.session.Status)
		}
		if len(updates) != 2 {
			t.Fatalf("expected 2 updates, got %d", len(updates))
		}
		if updates[0].Totals.Processed != 2 || updates[1].Totals.Processed != 5 {
			t.Errorf("updates out of order: %d then %d", updates[0].Totals.Processed, updates[1].Totals.Processed)
		}
		if p.Running() {
			t.Error("poller should not be running after halt")
		}
	})

	t.Run("Halts On Awaiting Decision", func(t *testing.T) {
		engine := scriptedEngine(t,
			processing("s1", 4),
			awaiting("s1", 5),
		)
		p := NewPoller(engine, interval, nil)

		updates, halt := runPoller(t, p, "s1")

		if halt.err != nil {
			t.Fatalf("expected clean halt, got %v", halt.err)
		}
		if halt.session.Status != models.StatusAwaitingDecision {
			t.Errorf("expected awaiting_decision, got %s", halt.session.Status)
		}
		if halt.session.PendingDecision == nil {
			t.Fatal("expected the pending decision payload to be handed off")
		}
		if halt.session.PendingDecision.Candidates[0].ID != "c1" {
			t.Error("expected candidate payload to survive the handoff")
		}
		if len(updates) != 1 {
			t.Errorf("expected 1 update before handoff, got %d", len(updates))
		}
	})

	t.Run("Fails Fast On Fetch Error", func(t *testing.T) {
		calls := 0
		var mu sync.Mutex
		engine := &tu.MockEngine{
			StatusFunc: func(ctx context.Context, sessionID string) (*models.Session, error) {
				mu.Lock()
				defer mu.Unlock()
				calls++
				if calls == 1 {
					return processing("s1", 1), nil
				}
				return nil, fmt.Errorf("%w: connection refused", shared.ErrNetwork)
			},
		}
		p := NewPoller(engine, interval, nil)

		updates, halt := runPoller(t, p, "s1")

		if !errors.Is(halt.err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", halt.err)
		}
		if halt.session == nil || halt.session.Totals.Processed != 1 {
			t.Error("expected the last good snapshot in the halt")
		}
		if len(updates) != 1 {
			t.Errorf("expected 1 update before failure, got %d", len(updates))
		}

		mu.Lock()
		finalCalls := calls
		mu.Unlock()
		if finalCalls != 2 {
			t.Errorf("expected no retry after failure, got %d calls", finalCalls)
		}
	})

	t.Run("Surfaces Job Failure", func(t *testing.T) {
		failed := terminal("s1", models.StatusError)
		failed.ErrorMessage = "destination quota exceeded"
		engine := scriptedEngine(t, failed)
		p := NewPoller(engine, interval, nil)

		_, halt := runPoller(t, p, "s1")

		if !errors.Is(halt.err, shared.ErrJobReported) {
			t.Errorf("expected ErrJobReported, got %v", halt.err)
		}
		if halt.session.Status != models.StatusError {
			t.Errorf("expected error status, got %s", halt.session.Status)
		}
	})

	t.Run("Rejects Out Of Order Snapshot", func(t *testing.T) {
		engine := scriptedEngine(t,
			processing("s1", 7),
			processing("s1", 3),
		)
		p := NewPoller(engine, interval, nil)

		_, halt := runPoller(t, p, "s1")

		if !errors.Is(halt.err, shared.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", halt.err)
		}
	})

	t.Run("Stop Is Effective", func(t *testing.T) {
		engine := scriptedEngine(t, processing("s1", 1))
		p := NewPoller(engine, interval, nil)

		var mu sync.Mutex
		updates := 0
		halted := make(chan struct{})

		err := p.Start(context.Background(), "s1",
			func(s *models.Session) {
				mu.Lock()
				updates++
				mu.Unlock()
			},
			func(s *models.Session, err error) {
				if err != nil {
					t.Errorf("expected clean stop, got %v", err)
				}
				close(halted)
			},
		)
		if err != nil {
			t.Fatalf("Start() unexpected error: %v", err)
		}

		// Let at least one update land before stopping
		time.Sleep(3 * interval)
		p.Stop()

		select {
		case <-halted:
		case <-time.After(time.Second):
			t.Fatal("halt callback should fire on stop")
		}

		mu.Lock()
		after := updates
		mu.Unlock()
		time.Sleep(3 * interval)
		mu.Lock()
		final := updates
		mu.Unlock()

		if final != after {
			t.Error("no updates should fire after Stop returns")
		}
		if p.Running() {
			t.Error("poller should not be running after Stop")
		}

		// Stopping again is a no-op
		p.Stop()
	})

	t.Run("Rejects Concurrent Start", func(t *testing.T) {
		engine := scriptedEngine(t, processing("s1", 1))
		p := NewPoller(engine, time.Minute, nil)

		if err := p.Start(context.Background(), "s1", nil, func(*models.Session, error) {}); err != nil {
			t.Fatalf("Start() unexpected error: %v", err)
		}
		defer p.Stop()

		if err := p.Start(context.Background(), "s1", nil, func(*models.Session, error) {}); !errors.Is(err, shared.ErrPollerRunning) {
			t.Errorf("expected ErrPollerRunning, got %v", err)
		}
	})

	t.Run("Resumes From Decision Snapshot", func(t *testing.T) {
		engine := scriptedEngine(t,
			processing("s1", 3),
			terminal("s1", models.StatusCompleted),
		)
		p := NewPoller(engine, interval, nil)
		p.Resume(processing("s1", 5))

		_, halt := runPoller(t, p, "s1")

		// First scripted snapshot has processed=3, below the resumed 5
		if !errors.Is(halt.err, shared.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition for a regressing snapshot, got %v", halt.err)
		}
	})

	t.Run("Requires Session ID", func(t *testing.T) {
		p := NewPoller(&tu.MockEngine{}, interval, nil)
		err := p.Start(context.Background(), "", nil, func(*models.Session, error) {})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

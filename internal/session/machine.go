package session

import (
	"fmt"

	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/shared"
)

// EventKind discriminates the events the reducer accepts.
type EventKind string

const (
	// EventPoll carries a session snapshot from a status fetch.
	EventPoll EventKind = "poll"
	// EventDecision carries the session returned by a decision submission.
	EventDecision EventKind = "decision"
	// EventReset clears the machine back to the uninitialized state.
	EventReset EventKind = "reset"
)

// Event is one input to the reducer.
type Event struct {
	Kind     EventKind
	Snapshot *models.Session
}

// PollEvent builds a poll event from a fetched snapshot.
func PollEvent(snapshot *models.Session) Event {
	return Event{Kind: EventPoll, Snapshot: snapshot}
}

// DecisionEvent builds a decision event from a decision response.
func DecisionEvent(snapshot *models.Session) Event {
	return Event{Kind: EventDecision, Snapshot: snapshot}
}

// ResetEvent builds a reset event.
func ResetEvent() Event {
	return Event{Kind: EventReset}
}

// Apply is a pure reducer advancing the session state machine.
//
// current may be nil (uninitialized). The returned session is always a fresh
// value; neither current nor the event snapshot is mutated or aliased.
// Illegal transitions return [shared.ErrInvalidTransition] and leave the
// caller's state untouched.
func Apply(current *models.Session, event Event) (*models.Session, error) {
	if event.Kind == EventReset {
		// Reset is only reachable from terminal states or an empty machine
		if current != nil && !current.Status.Terminal() {
			return nil, fmt.Errorf("%w: cannot reset %s session", shared.ErrInvalidTransition, current.Status)
		}
		return nil, nil
	}

	next := event.Snapshot
	if next == nil {
		return nil, fmt.Errorf("%w: %s event without snapshot", shared.ErrInvalidTransition, event.Kind)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	if current == nil {
		return next.Clone(), nil
	}

	if next.ID != current.ID {
		return nil, fmt.Errorf("%w: snapshot for session %s applied to %s", shared.ErrInvalidTransition, next.ID, current.ID)
	}
	if current.Status.Terminal() {
		return nil, fmt.Errorf("%w: session already %s", shared.ErrInvalidTransition, current.Status)
	}
	if err := checkTransition(current.Status, next.Status); err != nil {
		return nil, err
	}
	if err := checkCounters(current.Totals, next.Totals); err != nil {
		return nil, err
	}

	return next.Clone(), nil
}

// checkTransition enforces the legal status graph.
func checkTransition(from, to models.Status) error {
	legal := map[models.Status][]models.Status{
		models.StatusInitializing:     {models.StatusInitializing, models.StatusProcessing, models.StatusError},
		models.StatusProcessing:       {models.StatusProcessing, models.StatusAwaitingDecision, models.StatusCompleted, models.StatusError},
		models.StatusAwaitingDecision: {models.StatusAwaitingDecision, models.StatusProcessing, models.StatusCompleted, models.StatusError},
	}

	for _, allowed := range legal[from] {
		if to == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", shared.ErrInvalidTransition, from, to)
}

// checkCounters enforces monotonic counters within one session.
func checkCounters(from, to models.Totals) error {
	if to.Processed < from.Processed {
		return fmt.Errorf("%w: processed decreased from %d to %d", shared.ErrInvalidTransition, from.Processed, to.Processed)
	}
	if to.Accepted < from.Accepted || to.Rejected < from.Rejected || to.Manual < from.Manual {
		return fmt.Errorf("%w: resolved counters decreased", shared.ErrInvalidTransition)
	}
	return nil
}

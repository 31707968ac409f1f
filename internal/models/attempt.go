package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/mgx/internal/shared"
)

// Attempt is one migration attempt recorded in local history.
//
// Implements the [Model] interface with soft delete support. An attempt is
// created when a job starts and updated as the session advances, so the
// history survives even when the engine forgets the session.
type Attempt struct {
	id             string
	sequence       int
	sessionID      string
	sourceProvider string
	destProvider   string
	playlistName   string
	status         Status
	totals         Totals
	errorMessage   string
	startedAt      time.Time
	finishedAt     *time.Time
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewAttempt creates an attempt for a freshly started session.
func NewAttempt(sequence int, sessionID, sourceProvider, destProvider string) *Attempt {
	now := time.Now()
	return &Attempt{
		sequence:       sequence,
		sessionID:      sessionID,
		sourceProvider: sourceProvider,
		destProvider:   destProvider,
		status:         StatusInitializing,
		startedAt:      now,
		createdAt:      now,
		updatedAt:      now,
	}
}

func (a *Attempt) ID() string { return a.id }
func (a *Attempt) Sequence() int { return a.sequence }
func (a *Attempt) SessionID() string { return a.sessionID }
func (a *Attempt) SourceProvider() string { return a.sourceProvider }
func (a *Attempt) DestProvider() string { return a.destProvider }
func (a *Attempt) PlaylistName() string { return a.playlistName }
func (a *Attempt) Status() Status { return a.status }
func (a *Attempt) Totals() Totals { return a.totals }
func (a *Attempt) ErrorMessage() string { return a.errorMessage }
func (a *Attempt) StartedAt() time.Time { return a.startedAt }
func (a *Attempt) FinishedAt() *time.Time { return a.finishedAt }
func (a *Attempt) CreatedAt() time.Time { return a.createdAt }
func (a *Attempt) UpdatedAt() time.Time { return a.updatedAt }
func (a *Attempt) DeletedAt() *time.Time { return a.deletedAt }

func (a *Attempt) SetID(id string) { a.id = id }
func (a *Attempt) SetPlaylistName(name string) { a.playlistName = name }
func (a *Attempt) SetStatus(s Status) { a.status = s }
func (a *Attempt) SetTotals(t Totals) { a.totals = t }
func (a *Attempt) SetErrorMessage(msg string) { a.errorMessage = msg }
func (a *Attempt) SetStartedAt(t time.Time) { a.startedAt = t }
func (a *Attempt) SetFinishedAt(t *time.Time) { a.finishedAt = t }
func (a *Attempt) SetCreatedAt(t time.Time) { a.createdAt = t }
func (a *Attempt) SetUpdatedAt(t time.Time) { a.updatedAt = t }
func (a *Attempt) SetDeletedAt(t *time.Time) { a.deletedAt = t }
func (a *Attempt) SetSequence(s int) { a.sequence = s }

// Finish marks the attempt as done in the given terminal status.
func (a *Attempt) Finish(status Status, totals Totals, errorMessage string) {
	now := time.Now()
	a.status = status
	a.totals = totals
	a.errorMessage = errorMessage
	a.finishedAt = &now
	a.updatedAt = now
}

// Validate checks if the attempt's data is valid.
func (a *Attempt) Validate() error {
	if a.sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}
	if a.sourceProvider == "" {
		return fmt.Errorf("%w: source provider", shared.ErrMissingArgument)
	}
	if a.destProvider == "" {
		return fmt.Errorf("%w: dest provider", shared.ErrMissingArgument)
	}
	if !a.status.Valid() {
		return fmt.Errorf("%w: status %q", shared.ErrInvalidInput, a.status)
	}
	if err := a.totals.Validate(); err != nil {
		return err
	}
	if a.finishedAt != nil && a.finishedAt.Before(a.startedAt) {
		return fmt.Errorf("%w: finished before started", shared.ErrInvalidInput)
	}
	return nil
}

package models

import (
	"errors"
	"testing"

	"github.com/desertthunder/mgx/internal/shared"
)

func validSession() *Session {
	return &Session{
		ID:     "sess_1",
		Status: StatusProcessing,
		Totals: Totals{Total: 10, Processed: 5, Accepted: 3, Rejected: 1, Manual: 1},
		CurrentSong: &Song{
			Title:  "Song Title",
			Artist: "Artist Name",
		},
	}
}

func awaitingSession() *Session {
	s := validSession()
	s.Status = StatusAwaitingDecision
	s.PendingDecision = &PendingDecision{
		Song: Song{Title: "Ambiguous Song", Artist: "Artist Name"},
		Candidates: []Candidate{
			{ID: "c1", Title: "Ambiguous Song", Artist: "Artist Name", MatchScore: 0.92},
			{ID: "c2", Title: "Ambiguous Song (Live)", Artist: "Artist Name", MatchScore: 0.71},
		},
	}
	return s
}

func TestSessionValidate(t *testing.T) {
	tc := []struct {
		name    string
		mutate  func(*Session)
		session *Session
		wantErr error
	}{
		{
			name:    "valid processing session",
			session: validSession(),
		},
		{
			name:    "valid awaiting session",
			session: awaitingSession(),
		},
		{
			name:    "missing id",
			session: validSession(),
			mutate:  func(s *Session) { s.ID = "" },
			wantErr: shared.ErrMissingArgument,
		},
		{
			name:    "unknown status",
			session: validSession(),
			mutate:  func(s *Session) { s.Status = "paused" },
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "processed exceeds total",
			session: validSession(),
			mutate:  func(s *Session) { s.Totals.Processed = 11 },
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "resolved exceeds processed",
			session: validSession(),
			mutate:  func(s *Session) { s.Totals.Accepted = 5 },
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "awaiting without pending decision",
			session: awaitingSession(),
			mutate:  func(s *Session) { s.PendingDecision = nil },
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "pending decision outside awaiting",
			session: awaitingSession(),
			mutate:  func(s *Session) { s.Status = StatusProcessing },
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "pending decision without candidates",
			session: awaitingSession(),
			mutate:  func(s *Session) { s.PendingDecision.Candidates = nil },
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "candidate score out of range",
			session: awaitingSession(),
			mutate:  func(s *Session) { s.PendingDecision.Candidates[0].MatchScore = 1.2 },
			wantErr: shared.ErrInvalidInput,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate != nil {
				tt.mutate(tt.session)
			}

			err := tt.session.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionClone(t *testing.T) {
	orig := awaitingSession()
	orig.RecentActivity = []Activity{{Message: "matched 5 songs"}}

	clone := orig.Clone()

	if clone == orig {
		t.Fatal("clone should be a new session")
	}
	if clone.ID != orig.ID || clone.Status != orig.Status {
		t.Error("clone should carry the same scalar fields")
	}

	clone.PendingDecision.Candidates[0].MatchScore = 0.1
	clone.CurrentSong.Title = "changed"
	clone.RecentActivity[0].Message = "changed"

	if orig.PendingDecision.Candidates[0].MatchScore != 0.92 {
		t.Error("mutating clone candidates should not affect original")
	}
	if orig.CurrentSong.Title != "Ambiguous Song" && orig.CurrentSong.Title != "Song Title" {
		t.Errorf("unexpected original song title %q", orig.CurrentSong.Title)
	}
	if orig.RecentActivity[0].Message != "matched 5 songs" {
		t.Error("mutating clone activity should not affect original")
	}

	var nilSession *Session
	if nilSession.Clone() != nil {
		t.Error("cloning nil should yield nil")
	}
}

func TestStatus(t *testing.T) {
	if !StatusCompleted.Terminal() || !StatusError.Terminal() {
		t.Error("completed and error are terminal")
	}
	if StatusProcessing.Terminal() || StatusAwaitingDecision.Terminal() {
		t.Error("processing and awaiting_decision are not terminal")
	}
	if !StatusProcessing.Active() || !StatusAwaitingDecision.Active() {
		t.Error("processing and awaiting_decision are active")
	}
	if StatusInitializing.Active() || StatusCompleted.Active() {
		t.Error("initializing and completed are not active")
	}
	if Status("paused").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestMigrationConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config := DefaultMigrationConfig()
		if config.HardThreshold != 0.87 {
			t.Errorf("expected hard threshold 0.87, got %f", config.HardThreshold)
		}
		if config.RejectThreshold != 0.60 {
			t.Errorf("expected reject threshold 0.60, got %f", config.RejectThreshold)
		}
		if config.MaxCandidates != 5 {
			t.Errorf("expected max candidates 5, got %d", config.MaxCandidates)
		}
		if config.DryRun {
			t.Error("expected dry run disabled by default")
		}
		if err := config.Validate(); err != nil {
			t.Errorf("defaults should validate: %v", err)
		}
	})

	t.Run("invalid thresholds", func(t *testing.T) {
		config := DefaultMigrationConfig()
		config.RejectThreshold = 0.95
		if err := config.Validate(); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}

		config = DefaultMigrationConfig()
		config.MaxCandidates = 0
		if err := config.Validate(); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestChoice(t *testing.T) {
	for _, c := range []Choice{ChoiceAccept, ChoiceReject, ChoiceManual} {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if Choice("retry").Valid() {
		t.Error("unknown choice should be invalid")
	}
}

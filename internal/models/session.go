package models

import (
	"fmt"

	"github.com/desertthunder/mgx/internal/shared"
)

// Status is the lifecycle state of a migration session as reported by the engine.
type Status string

const (
	StatusInitializing     Status = "initializing"
	StatusProcessing       Status = "processing"
	StatusAwaitingDecision Status = "awaiting_decision"
	StatusCompleted        Status = "completed"
	StatusError            Status = "error"
)

// Terminal reports whether no further automatic progress occurs in this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Active reports whether the session should still be polled.
func (s Status) Active() bool {
	return s == StatusProcessing || s == StatusAwaitingDecision
}

// Valid reports whether s is a status the engine can legally report.
func (s Status) Valid() bool {
	switch s {
	case StatusInitializing, StatusProcessing, StatusAwaitingDecision, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Totals holds the monotonic progress counters for a session.
//
// Counters never decrease for the lifetime of a session; a new session starts from zero.
type Totals struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Manual    int `json:"manual"`
}

// Validate checks the counter invariants.
func (t Totals) Validate() error {
	if t.Total < 0 || t.Processed < 0 || t.Accepted < 0 || t.Rejected < 0 || t.Manual < 0 {
		return fmt.Errorf("%w: negative counter", shared.ErrInvalidInput)
	}
	if t.Processed > t.Total {
		return fmt.Errorf("%w: processed %d exceeds total %d", shared.ErrInvalidInput, t.Processed, t.Total)
	}
	if t.Accepted+t.Rejected+t.Manual > t.Processed {
		return fmt.Errorf("%w: resolved count exceeds processed %d", shared.ErrInvalidInput, t.Processed)
	}
	return nil
}

// Song is one source-library item being migrated.
type Song struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	ISRC     string `json:"isrc,omitempty"`
	Duration int    `json:"duration_ms,omitempty"`
}

// Candidate is a proposed destination-catalog match for one source song.
type Candidate struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album,omitempty"`
	Duration   int     `json:"duration_ms,omitempty"`
	Popularity int     `json:"popularity,omitempty"`
	MatchScore float64 `json:"match_score"`
}

// Validate checks that the candidate carries an identifier and an in-range score.
func (c Candidate) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: candidate id", shared.ErrMissingArgument)
	}
	if c.MatchScore < 0 || c.MatchScore > 1 {
		return fmt.Errorf("%w: match score %f out of range", shared.ErrInvalidInput, c.MatchScore)
	}
	return nil
}

// PendingDecision carries the song blocking a job and its match candidates.
type PendingDecision struct {
	Song       Song        `json:"song"`
	Candidates []Candidate `json:"candidates"`
}

// Activity is one recent engine-side event, newest first.
type Activity struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Session is the authoritative record of one migration attempt's progress and state.
type Session struct {
	ID              string           `json:"session_id"`
	Status          Status           `json:"status"`
	Totals          Totals           `json:"totals"`
	CurrentSong     *Song            `json:"current_song,omitempty"`
	PendingDecision *PendingDecision `json:"pending_decision,omitempty"`
	RecentActivity  []Activity       `json:"recent_activity,omitempty"`
	ErrorMessage    string           `json:"error_message,omitempty"`
}

// Validate checks the session invariants: counters are consistent and a
// pending decision is present exactly when the session awaits one.
func (s *Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: status %q", shared.ErrInvalidInput, s.Status)
	}
	if err := s.Totals.Validate(); err != nil {
		return err
	}
	if s.Status == StatusAwaitingDecision && s.PendingDecision == nil {
		return fmt.Errorf("%w: awaiting decision without a pending decision", shared.ErrInvalidInput)
	}
	if s.Status != StatusAwaitingDecision && s.PendingDecision != nil {
		return fmt.Errorf("%w: pending decision outside awaiting_decision", shared.ErrInvalidInput)
	}
	if s.PendingDecision != nil {
		if len(s.PendingDecision.Candidates) == 0 {
			return fmt.Errorf("%w: pending decision without candidates", shared.ErrInvalidInput)
		}
		for _, c := range s.PendingDecision.Candidates {
			if err := c.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the session so reducer output never aliases its input.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	out := *s

	if s.CurrentSong != nil {
		song := *s.CurrentSong
		out.CurrentSong = &song
	}
	if s.PendingDecision != nil {
		pd := PendingDecision{Song: s.PendingDecision.Song}
		pd.Candidates = make([]Candidate, len(s.PendingDecision.Candidates))
		copy(pd.Candidates, s.PendingDecision.Candidates)
		out.PendingDecision = &pd
	}
	if s.RecentActivity != nil {
		out.RecentActivity = make([]Activity, len(s.RecentActivity))
		copy(out.RecentActivity, s.RecentActivity)
	}

	return &out
}

// MigrationConfig tunes the engine's automatic matching for one migration run.
type MigrationConfig struct {
	HardThreshold   float64 `json:"hard_threshold"`
	RejectThreshold float64 `json:"reject_threshold"`
	MaxCandidates   int     `json:"max_candidates"`
	DryRun          bool    `json:"dry_run"`
}

// DefaultMigrationConfig returns the engine's documented matching defaults.
func DefaultMigrationConfig() MigrationConfig {
	return MigrationConfig{
		HardThreshold:   0.87,
		RejectThreshold: 0.60,
		MaxCandidates:   5,
		DryRun:          false,
	}
}

// Validate checks threshold ordering and ranges.
func (c MigrationConfig) Validate() error {
	if c.HardThreshold < 0 || c.HardThreshold > 1 {
		return fmt.Errorf("%w: hard threshold %f out of range", shared.ErrInvalidConfig, c.HardThreshold)
	}
	if c.RejectThreshold < 0 || c.RejectThreshold > 1 {
		return fmt.Errorf("%w: reject threshold %f out of range", shared.ErrInvalidConfig, c.RejectThreshold)
	}
	if c.RejectThreshold > c.HardThreshold {
		return fmt.Errorf("%w: reject threshold %f above hard threshold %f", shared.ErrInvalidConfig, c.RejectThreshold, c.HardThreshold)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("%w: max candidates must be positive", shared.ErrInvalidConfig)
	}
	return nil
}

// Choice is a human or automatic resolution of one pending candidate ambiguity.
type Choice string

const (
	ChoiceAccept Choice = "accept" // take the job's own best candidate
	ChoiceReject Choice = "reject" // skip the pending item entirely
	ChoiceManual Choice = "manual" // use the specific candidate named by CandidateID
)

// Valid reports whether c is a recognized choice.
func (c Choice) Valid() bool {
	return c == ChoiceAccept || c == ChoiceReject || c == ChoiceManual
}

// DecisionRequest is the body of a decision submission.
//
// CandidateID is required when Decision is [ChoiceManual] and ignored otherwise.
type DecisionRequest struct {
	SessionID   string `json:"session_id"`
	Decision    Choice `json:"decision"`
	CandidateID string `json:"candidate_id,omitempty"`
}

// DecisionOutcome is the engine's response to a decision submission.
type DecisionOutcome struct {
	Session           *Session `json:"session"`
	MigrationComplete bool     `json:"migration_complete"`
}

// UploadPreview summarizes a parsed library payload before a migration starts.
type UploadPreview struct {
	TotalSongs int    `json:"total_songs"`
	Playlists  int    `json:"playlists"`
	SampleSong *Song  `json:"sample_song,omitempty"`
	Checksum   string `json:"checksum,omitempty"`
}

// StartResponse is the engine's acknowledgement of a started migration job.
type StartResponse struct {
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
}

// ResultEntry is one successfully migrated song in the final report.
type ResultEntry struct {
	Song        Song    `json:"song"`
	MatchedWith string  `json:"matched_with"`
	MatchScore  float64 `json:"match_score"`
	Resolution  Choice  `json:"resolution,omitempty"`
}

// RejectedEntry is one song the migration declined to move.
type RejectedEntry struct {
	Song   Song   `json:"song"`
	Reason string `json:"reason,omitempty"`
}

// MigrationResult is the final itemized outcome of a completed session.
type MigrationResult struct {
	SessionID string          `json:"session_id"`
	Totals    Totals          `json:"totals"`
	Accepted  []ResultEntry   `json:"accepted"`
	Rejected  []RejectedEntry `json:"rejected"`
	Manual    []ResultEntry   `json:"manual"`
}

package repositories

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/shared"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func sampleAttempt(sessionID string) *models.Attempt {
	attempt := models.NewAttempt(0, sessionID, "spotify", "youtube")
	attempt.SetPlaylistName("Road Trip")
	return attempt
}

func TestNextSequence(t *testing.T) {
	db := setupDB(t)

	first, err := NextSequence(db, "attempts")
	if err != nil {
		t.Fatalf("NextSequence() unexpected error: %v", err)
	}
	second, err := NextSequence(db, "attempts")
	if err != nil {
		t.Fatalf("NextSequence() unexpected error: %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("expected sequences 1 and 2, got %d and %d", first, second)
	}

	t.Run("Unknown Table", func(t *testing.T) {
		if _, err := NextSequence(db, "missing"); err == nil {
			t.Error("expected an error for a missing sequence table")
		}
	})
}

func TestAttemptRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		repo := NewAttemptRepository(setupDB(t))

		attempt := sampleAttempt("s1")
		if err := repo.Create(attempt); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if attempt.ID() == "" {
			t.Error("Create should assign an ID")
		}
		if attempt.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", attempt.Sequence())
		}

		got, err := repo.Get(attempt.ID())
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if got.SessionID() != "s1" {
			t.Errorf("expected session s1, got %s", got.SessionID())
		}
		if got.PlaylistName() != "Road Trip" {
			t.Errorf("expected playlist name round trip, got %q", got.PlaylistName())
		}
		if got.Status() != models.StatusInitializing {
			t.Errorf("expected initializing, got %s", got.Status())
		}
		if got.FinishedAt() != nil {
			t.Error("a fresh attempt has no finish time")
		}
	})

	t.Run("Create Rejects Invalid Attempts", func(t *testing.T) {
		repo := NewAttemptRepository(setupDB(t))

		err := repo.Create(models.NewAttempt(0, "", "spotify", "youtube"))
		if err == nil || !strings.Contains(err.Error(), "validation failed") {
			t.Errorf("expected a validation error, got %v", err)
		}
	})

	t.Run("Get By Session", func(t *testing.T) {
		repo := NewAttemptRepository(setupDB(t))

		attempt := sampleAttempt("s1")
		if err := repo.Create(attempt); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}

		got, err := repo.GetBySession("s1")
		if err != nil {
			t.Fatalf("GetBySession() unexpected error: %v", err)
		}
		if got.ID() != attempt.ID() {
			t.Errorf("expected attempt %s, got %s", attempt.ID(), got.ID())
		}

		if _, err := repo.GetBySession("missing"); err == nil {
			t.Error("expected an error for an unknown session")
		}
	})

	t.Run("Update Records The Final State", func(t *testing.T) {
		repo := NewAttemptRepository(setupDB(t))

		attempt := sampleAttempt("s1")
		if err := repo.Create(attempt); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}

		totals := models.Totals{Total: 10, Processed: 10, Accepted: 8, Rejected: 1, Manual: 1}
		attempt.Finish(models.StatusCompleted, totals, "")
		if err := repo.Update(attempt); err != nil {
			t.Fatalf("Update() unexpected error: %v", err)
		}

		got, err := repo.Get(attempt.ID())
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if got.Status() != models.StatusCompleted {
			t.Errorf("expected completed, got %s", got.Status())
		}
		if got.Totals() != totals {
			t.Errorf("expected totals %+v, got %+v", totals, got.Totals())
		}
		if got.FinishedAt() == nil {
			t.Error("expected a finish time after update")
		}
	})

	t.Run("Update Missing Attempt", func(t *testing.T) {
		repo := NewAttemptRepository(setupDB(t))

		attempt := sampleAttempt("s1")
		attempt.SetID("nonexistent")
		err := repo.Update(attempt)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected a not found error, got %v", err)
		}
	})

	t.Run("Soft Delete", func(t *testing.T) {
		repo := NewAttemptRepository(setupDB(t))

		attempt := sampleAttempt("s1")
		if err := repo.Create(attempt); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}

		if err := repo.Delete(attempt.ID()); err != nil {
			t.Fatalf("Delete() unexpected error: %v", err)
		}
		if _, err := repo.Get(attempt.ID()); err == nil {
			t.Error("deleted attempts should not be retrievable")
		}
		if err := repo.Delete(attempt.ID()); err == nil {
			t.Error("double delete should fail")
		}

		// The row survives for audit purposes
		var deletedAt time.Time
		row := repo.db.QueryRow("SELECT deleted_at FROM attempts WHERE id = ?", attempt.ID())
		if err := row.Scan(&deletedAt); err != nil {
			t.Fatalf("expected the soft deleted row to remain: %v", err)
		}
	})

	t.Run("List With Criteria", func(t *testing.T) {
		repo := NewAttemptRepository(setupDB(t))

		first := sampleAttempt("s1")
		if err := repo.Create(first); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		second := models.NewAttempt(0, "s2", "apple_music", "youtube")
		second.Finish(models.StatusCompleted, models.Totals{Total: 5, Processed: 5, Accepted: 5}, "")
		if err := repo.Create(second); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("List() unexpected error: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 attempts, got %d", len(all))
		}
		if all[0].SessionID() != "s2" {
			t.Error("expected newest attempt first")
		}

		completed, err := repo.List(map[string]any{"status": string(models.StatusCompleted)})
		if err != nil {
			t.Fatalf("List() unexpected error: %v", err)
		}
		if len(completed) != 1 || completed[0].SessionID() != "s2" {
			t.Errorf("expected only the completed attempt, got %d", len(completed))
		}

		bySource, err := repo.List(map[string]any{"source_provider": "spotify"})
		if err != nil {
			t.Fatalf("List() unexpected error: %v", err)
		}
		if len(bySource) != 1 || bySource[0].SessionID() != "s1" {
			t.Errorf("expected only the spotify attempt, got %d", len(bySource))
		}
	})
}

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/shared"
)

// AttemptRepository implements models.Repository[*models.Attempt] for local
// migration history.
//
// Handles attempt CRUD operations with soft delete support and status-based queries.
type AttemptRepository struct {
	db *sql.DB
}

// NewAttemptRepository creates a new AttemptRepository with the given database connection
func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Create inserts a new attempt into the database with generated ID and sequence
func (r *AttemptRepository) Create(attempt *models.Attempt) error {
	sequence, err := NextSequence(r.db, "attempts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	attempt.SetID(shared.GenerateID())
	attempt.SetSequence(sequence)

	if err := attempt.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO attempts (
			id, sequence, session_id, source_provider, dest_provider,
			playlist_name, status, total_songs, processed, accepted,
			rejected, manual, error_message, started_at, finished_at,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	totals := attempt.Totals()
	_, err = r.db.Exec(query,
		attempt.ID(),
		attempt.Sequence(),
		attempt.SessionID(),
		attempt.SourceProvider(),
		attempt.DestProvider(),
		nullableString(attempt.PlaylistName()),
		attempt.Status(),
		totals.Total,
		totals.Processed,
		totals.Accepted,
		totals.Rejected,
		totals.Manual,
		nullableString(attempt.ErrorMessage()),
		attempt.StartedAt(),
		attempt.FinishedAt(),
		attempt.CreatedAt(),
		attempt.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}

	return nil
}

// Get retrieves an attempt by ID, excluding soft-deleted attempts
func (r *AttemptRepository) Get(id string) (*models.Attempt, error) {
	query := selectColumns + ` WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySession retrieves the attempt recorded for a session ID
func (r *AttemptRepository) GetBySession(sessionID string) (*models.Attempt, error) {
	query := selectColumns + ` WHERE session_id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, sessionID))
}

// Update modifies an existing attempt in the database
func (r *AttemptRepository) Update(attempt *models.Attempt) error {
	if err := attempt.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	attempt.SetUpdatedAt(now)

	query := `
		UPDATE attempts
		SET playlist_name = ?, status = ?, total_songs = ?, processed = ?,
			accepted = ?, rejected = ?, manual = ?, error_message = ?,
			finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	totals := attempt.Totals()
	result, err := r.db.Exec(query,
		nullableString(attempt.PlaylistName()),
		attempt.Status(),
		totals.Total,
		totals.Processed,
		totals.Accepted,
		totals.Rejected,
		totals.Manual,
		nullableString(attempt.ErrorMessage()),
		attempt.FinishedAt(),
		now,
		attempt.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("attempt not found or already deleted: %s", attempt.ID())
	}

	return nil
}

// Delete soft-deletes an attempt by ID
func (r *AttemptRepository) Delete(id string) error {
	query := `
		UPDATE attempts
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("attempt not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all attempts matching the given criteria, excluding soft-deleted attempts
func (r *AttemptRepository) List(criteria map[string]any) ([]*models.Attempt, error) {
	query := selectColumns + ` WHERE deleted_at IS NULL`
	args := []any{}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if source, ok := criteria["source_provider"].(string); ok && source != "" {
		query += " AND source_provider = ?"
		args = append(args, source)
	}

	if dest, ok := criteria["dest_provider"].(string); ok && dest != "" {
		query += " AND dest_provider = ?"
		args = append(args, dest)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*models.Attempt
	for rows.Next() {
		attempt, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return attempts, nil
}

const selectColumns = `
	SELECT
		id, sequence, session_id, source_provider, dest_provider,
		playlist_name, status, total_songs, processed, accepted,
		rejected, manual, error_message, started_at, finished_at,
		created_at, updated_at, deleted_at
	FROM attempts`

// scanner is the shared surface of [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

// scan reads one attempt row into a [models.Attempt]
func (r *AttemptRepository) scan(row scanner) (*models.Attempt, error) {
	var (
		id             string
		sequence       int
		sessionID      string
		sourceProvider string
		destProvider   string
		playlistName   sql.NullString
		status         string
		totals         models.Totals
		errorMessage   sql.NullString
		startedAt      time.Time
		finishedAt     sql.NullTime
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &sessionID, &sourceProvider, &destProvider,
		&playlistName, &status, &totals.Total, &totals.Processed,
		&totals.Accepted, &totals.Rejected, &totals.Manual, &errorMessage,
		&startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("attempt not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan attempt: %w", err)
	}

	attempt := models.NewAttempt(sequence, sessionID, sourceProvider, destProvider)
	attempt.SetID(id)
	attempt.SetStatus(models.Status(status))
	attempt.SetTotals(totals)
	attempt.SetStartedAt(startedAt)
	attempt.SetCreatedAt(createdAt)
	attempt.SetUpdatedAt(updatedAt)

	if playlistName.Valid {
		attempt.SetPlaylistName(playlistName.String)
	}
	if errorMessage.Valid {
		attempt.SetErrorMessage(errorMessage.String)
	}
	if finishedAt.Valid {
		attempt.SetFinishedAt(&finishedAt.Time)
	}
	if deletedAt.Valid {
		attempt.SetDeletedAt(&deletedAt.Time)
	}

	return attempt, nil
}

// nullableString maps empty strings to NULL for optional text columns
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// package services defines interface EngineClient for interacting with the migration engine
package services

import (
	"context"

	"github.com/desertthunder/mgx/internal/models"
)

// EngineClient defines the interface for the remote migration engine.
type EngineClient interface {
	// Upload submits a library payload for parsing and returns a preview
	// without starting a job.
	Upload(ctx context.Context, payload []byte) (*models.UploadPreview, error)

	// StartMigration submits the payload and matching config, creating a new
	// session on the engine.
	StartMigration(ctx context.Context, payload []byte, config models.MigrationConfig) (*models.StartResponse, error)

	// Status fetches the current session snapshot.
	Status(ctx context.Context, sessionID string) (*models.Session, error)

	// SubmitDecision resolves the pending decision for a session.
	SubmitDecision(ctx context.Context, req models.DecisionRequest) (*models.DecisionOutcome, error)

	// Results fetches the final itemized outcomes of a finished session.
	Results(ctx context.Context, sessionID string) (*models.MigrationResult, error)
}

package ui

import (
	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/tasks"
)

// progressUpdateMsg wraps one orchestrator progress event.
type progressUpdateMsg tasks.ProgressUpdate

// runCompleteMsg carries the final outcome of the migration run.
type runCompleteMsg struct {
	result *tasks.RunResult
	err    error
}

// decision is the user's answer for one pending song, forwarded to the
// orchestrator's decision callback.
type decision struct {
	choice      models.Choice
	candidateID string
	err         error
}

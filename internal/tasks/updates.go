package tasks

import (
	"fmt"

	"github.com/desertthunder/mgx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Upload Phase = iota
	StartJob
	Poll
	AwaitDecision
	SubmitDecision
	FetchResults
	Complete
)

func (p Phase) String() string {
	switch p {
	case Upload:
		return "upload"
	case StartJob:
		return "start_job"
	case Poll:
		return "poll"
	case AwaitDecision:
		return "await_decision"
	case SubmitDecision:
		return "submit_decision"
	case FetchResults:
		return "fetch_results"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func uploadUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Uploading library payload (%s)...", path),
	}
}

func startJobUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   StartJob,
		Step:    1,
		Total:   1,
		Message: "Starting migration job...",
	}
}

func pollUpdate(session *models.Session) ProgressUpdate {
	message := fmt.Sprintf("[%d/%d] Processing...", session.Totals.Processed, session.Totals.Total)
	if session.CurrentSong != nil {
		message = fmt.Sprintf("[%d/%d] %s - %s", session.Totals.Processed, session.Totals.Total, session.CurrentSong.Artist, session.CurrentSong.Title)
	}
	return ProgressUpdate{
		Phase:   Poll,
		Step:    session.Totals.Processed,
		Total:   session.Totals.Total,
		Message: message,
		Data:    session,
	}
}

func awaitDecisionUpdate(session *models.Session) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AwaitDecision,
		Step:    session.Totals.Processed,
		Total:   session.Totals.Total,
		Message: fmt.Sprintf("Needs review: %s - %s (%d candidates)", session.PendingDecision.Song.Artist, session.PendingDecision.Song.Title, len(session.PendingDecision.Candidates)),
		Data:    session.PendingDecision,
	}
}

func submitDecisionUpdate(choice models.Choice) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SubmitDecision,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Submitting decision: %s...", choice),
	}
}

func fetchResultsUpdate(sessionID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchResults,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching results for %s...", sessionID),
	}
}

func completeUpdate(result *models.MigrationResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Migration complete: %d accepted, %d rejected, %d manual", result.Totals.Accepted, result.Totals.Rejected, result.Totals.Manual),
		Data:    result,
	}
}

package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Auth handshake errors
	ErrPopupBlocked  = fmt.Errorf("authorization window could not be opened")
	ErrAuthCancelled = fmt.Errorf("authorization cancelled by user")
	ErrAuthProvider  = fmt.Errorf("provider reported authorization failure")

	// Session errors
	ErrNetwork           = fmt.Errorf("engine request failed")
	ErrSessionNotFound   = fmt.Errorf("session not found")
	ErrStaleDecision     = fmt.Errorf("session is not awaiting a decision")
	ErrJobReported       = fmt.Errorf("migration job failed")
	ErrInvalidTransition = fmt.Errorf("illegal session transition")
	ErrSessionActive     = fmt.Errorf("session still active")
	ErrPollerRunning     = fmt.Errorf("poller already running")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

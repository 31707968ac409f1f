// Package tasks orchestrates migration jobs with real-time progress reporting.
//
// # Core Operations
//
// The [Orchestrator] drives one migration end to end:
//
//  1. [Orchestrator.Preview] : Upload and parse the library payload
//     - Verifies and reads the payload file
//     - Uploads it to the engine for a parse preview
//     - Retains the bytes so Run starts from exactly what was previewed
//
//  2. [Orchestrator.Run] : Full migration run
//     - Starts the job with the retained payload and matching config
//     - Polls status until a terminal state or a pending decision
//     - Resolves pending decisions through the caller's [DecisionFunc]
//     - Fetches the final itemized report on completion
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Attempt History
//
// The optional [AttemptRecorder] interface enables local persistence of
// migration attempts.
//
// Attempts are recorded best effort (errors logged, never fatal) so history
// problems cannot disrupt a live migration.
//
// # Implementation
//
// [Orchestrator] depends on:
//   - [services.EngineClient] : the engine HTTP client
//   - [session.Poller] and [session.Gateway] : the poll loop and decision gateway
//   - [AttemptRecorder] : optional persistence layer (repositories.AttemptRepository)
package tasks

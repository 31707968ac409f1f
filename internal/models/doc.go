// Package models defines domain entities and persistence interfaces for the mgx migration orchestrator.
//
// The package contains two categories of types:
//
// 1. Wire types: structs mirroring the migration engine's JSON payloads
//   - [Session] : Authoritative snapshot of one migration job
//   - [Totals] : Monotonic progress counters for a session
//   - [PendingDecision] : The song blocking a job plus its match candidates
//   - [Candidate] : A proposed destination-catalog match with a confidence score
//   - [DecisionRequest] / [DecisionOutcome] : Decision submission round trip
//   - [UploadPreview], [StartResponse], [MigrationResult] : Remaining engine responses
//
// 2. Persistent entities: database-backed models with full lifecycle management
//   - [Attempt] : One migration attempt recorded in local history
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models

// Package services implements the HTTP client for the remote migration engine.
//
// # EngineClient Interface
//
// All engine interactions go through a common abstraction so orchestration and
// tests can swap the transport.
//
// # EngineService Implementation
//
// [EngineService] wraps a rate-limited [http.Client] with a fixed per-request
// timeout. Requests optionally carry a bearer token from an [oauth2.TokenSource]
// obtained during the authorization handshake.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNetwork] : transport failure or unexpected engine response
//   - [shared.ErrSessionNotFound] : session ID unknown to the engine
//   - [shared.ErrStaleDecision] : decision submitted for a session no longer awaiting one
//   - [shared.ErrJobReported] : the engine reported the job itself failed
//
// Status codes map onto these sentinels per endpoint; callers branch with
// [errors.Is] rather than inspecting HTTP details.
package services

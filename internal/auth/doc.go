// Package auth drives the browser-based authorization handshake.
//
// # Flow
//
// [Channel.Authorize] runs one complete flow: it binds a loopback listener,
// registers a [server.HandshakeHandler] behind a [server.BasicRouter], opens
// the engine's authorization page in the system browser, and waits for
// exactly one of:
//
//   - the handshake resolving (success or provider error)
//   - the browser window closing before the handshake resolves (cancellation)
//   - the caller's context being done
//
// The window is watched with a liveness probe on a fixed cadence since there
// is no close event to subscribe to for an external browser process.
//
// # Local Sources
//
// Migrations sourced from local files need no provider grant; Authorize
// short-circuits and returns a credential without opening a browser.
//
// # Window Abstraction
//
// [Window] abstracts the launched browser so tests can simulate blocked
// launches and user-closed windows without a real browser.
package auth

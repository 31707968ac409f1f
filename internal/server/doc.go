// Package server provides HTTP routing, middleware, and the authorization handshake endpoint.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handshake Handler
//
// [HandshakeHandler] receives the completion message from the engine's
// authorization page. When the user authorizes in the browser, the engine's
// page posts an AUTH_SUCCESS or AUTH_ERROR message to the local callback
// endpoint. The handler checks the message's origin and state token, and
// messages failing either check are discarded without resolving the flow, so
// an unrelated or malicious page cannot complete or break the handshake.
//
// Exactly one result is ever delivered: the first matching message wins and
// later messages (or a concurrent cancellation) are inert.
//
// # Current Usage
//
// When the user runs auth connect, a temporary HTTP server starts on a
// loopback port, the system browser opens the engine's authorization page,
// and the server shuts down after the handshake resolves.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

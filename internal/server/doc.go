// Package server implements the bridging HTTP endpoint between the IDE and
// the external document server.
//
// # Route surface
//
//   - GET /file/{token}: stream the registered file (Content-Type from the
//     extension map, Content-Length, attachment disposition). Unknown token
//     is 404 plain text.
//   - POST /callback/{token}: document lifecycle callback. Responds
//     {"error":0} for any recognized body, {"error":1} only on parse failure,
//     and dispatches the bound reconciliation handler asynchronously.
//   - GET /health: liveness probe reporting the bound port.
//   - OPTIONS anywhere: 200 for CORS preflight.
//   - Anything else: 404 plain text.
//
// # Lifecycle
//
// One server instance exists per process (see Default/Dispose). Start binds
// port 0 on all interfaces and is idempotent; Stop closes the socket and
// clears the token registry, so stale tokens 404 after a restart. There is no
// observable half-started state: Start either returns a serving port or an
// error with nothing bound.
//
// # Networking
//
// The document server may run inside a container that cannot reach the host's
// loopback, so advertised URLs use the first non-loopback IPv4 address (or
// Config.PublicHost). Responses carry permissive CORS headers because the
// calling origin is the document server's web UI.
package server

// Package server manages the lifecycle of external MCP tool servers.
//
// A [Manager] spawns each configured server as a stdio subprocess (or adopts
// a pre-built MCP client), initializes the protocol session, and polls a
// pluggable [ReadinessStrategy] until the server is usable or the start
// timeout elapses. The resulting [Handle] is the single point of contact for
// listing and calling the server's tools; the manager retains ownership and
// tears handles down with a graceful close and a kill fallback.
//
// Three readiness strategies are built in: [FixedDelay], [NamedTools] and
// [LogPattern].
package server

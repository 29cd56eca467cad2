// Package server implements the MindMesh relay: room-scoped chat broadcast
// over WebSocket with ephemeral presence tracking and an assistant hook.
//
// The implementation is organized into specialized files for configuration,
// the hub event loop, rooms and presence, message relay, the assistant hook,
// clients, routing, and HTTP handlers to keep the codebase maintainable and
// testable as the project grows.
package server

// Package session implements the connection registry of the game room server.
//
// The session package tracks, for every live transport connection:
//   - The player identifier assigned when the connection registered
//   - The player's current display name
//   - The room the connection is currently a member of, if any
//
// Core Types:
//
// Registry owns all Connection records. Connection is a value snapshot of
// one record; callers never hold a pointer into the registry.
//
// Identifiers:
//
// Connection IDs are chosen by the transport and are opaque to the registry.
// Player IDs are random UUIDs generated on Register and stay stable until
// the connection unregisters. The registry keeps a reverse index from player
// ID to connection ID so broadcast delivery can resolve room members to
// connections.
//
// Concurrency:
//
// Every exported method is a single atomic operation guarded by the
// registry's RWMutex. Sequences spanning several calls (for example
// unregister then leave the room) are coordinated by the service layer.
//
// Usage:
//
//	registry := session.NewRegistry()
//	playerID := registry.Register(connID)
//
//	if err := registry.SetDisplayName(connID, "alice"); err != nil {
//		// session.ErrUnknownConnection
//	}
//
//	conn, err := registry.Unregister(connID)
package session

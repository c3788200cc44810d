// Package room implements the room registry of the game room server.
//
// A room is one multiplayer session: an opaque game type chosen by its
// creator, a capacity, an ordered membership list and a shared game-state
// blob that clients replace wholesale with update_state actions.
//
// Invariants:
//   - A room never holds more members than its capacity
//   - A room with no members does not exist; the last Leave deletes it
//   - Returned Snapshots and member slices are copies
//
// Identifiers:
//
// Room IDs are the first 8 characters of a random UUID, regenerated on
// collision with a live room.
//
// Concurrency:
//
// The registry map is guarded by an RWMutex and every room carries its own
// mutex, so joins and leaves on different rooms do not contend. A room that
// is deleted while another goroutine holds a reference to it is flagged, and
// any operation that reaches it afterwards reports ErrRoomNotFound.
package room

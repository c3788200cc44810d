// Package broadcast delivers outbound events to connections.
//
// The Dispatcher supports three delivery modes: one connection (ToOne), every
// member of a room resolved at call time (ToRoom) and a membership snapshot
// the caller took inside its own critical section (ToMembers). Room members
// are resolved to connections through the connection registry, and a member
// listed more than once still receives a single copy.
//
// Delivery is fire-and-forget. The Sender, normally the WebSocket hub, only
// queues the frame on the recipient's buffered channel; recipients that are
// gone or backed up are skipped and logged at debug level.
package broadcast

// Package protocol defines the wire format spoken over game room connections.
//
// Every frame, in both directions, is a JSON envelope:
//
//	{"event": "join_room", "data": {"room_id": "1a2b3c4d"}}
//
// Inbound frames decode into a closed set of typed variants (SetUsername,
// CreateRoom, JoinRoom, LeaveRoom, GameAction, ChatMessage). Decode rejects
// unknown events, the transport-only connect/disconnect events and payloads
// that fail validation, before anything reaches the service layer. A
// rejected payload yields an *InvalidPayloadError whose Message, when set,
// is the text to return to the sender in an error event.
//
// Outbound payload types (Connected, RoomJoined, ChatRelay, ...) are encoded
// with Encode.
package protocol

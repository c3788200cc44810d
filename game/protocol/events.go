package protocol

// Event names a frame on the wire.
type Event string

// Inbound events. Connect and disconnect are raised by the transport and are
// rejected when a client sends them as frames.
const (
	EventConnect     Event = "connect"
	EventDisconnect  Event = "disconnect"
	EventSetUsername Event = "set_username"
	EventCreateRoom  Event = "create_room"
	EventJoinRoom    Event = "join_room"
	EventLeaveRoom   Event = "leave_room"
	EventGameAction  Event = "game_action"
	EventChatMessage Event = "chat_message"
)

// Outbound events.
const (
	EventConnected    Event = "connected"
	EventUsernameSet  Event = "username_set"
	EventRoomCreated  Event = "room_created"
	EventPlayerJoined Event = "player_joined"
	EventRoomJoined   Event = "room_joined"
	EventPlayerLeft   Event = "player_left"
	EventRoomLeft     Event = "room_left"
	EventError        Event = "error"
)

// User-facing error messages carried by EventError.
const (
	MsgInvalidRoomID     = "Invalid room ID"
	MsgRoomFull          = "Room is full"
	MsgGameTypeRequired  = "Game type is required"
	MsgInvalidMaxPlayers = "Invalid max players"
	MsgInvalidUsername   = "Invalid username"
	MsgNotInRoom         = "Not a member of this room"
)

// ChatTimeFormat is the layout of chat_message timestamps.
const ChatTimeFormat = "15:04:05"

// Reserved reports whether the event may only be raised by the transport
func (e Event) Reserved() bool {
	return e == EventConnect || e == EventDisconnect
}

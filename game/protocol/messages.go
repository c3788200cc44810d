package protocol

import (
	"github.com/goccy/go-json"
)

// Inbound is one decoded client frame. The concrete type is one of
// SetUsername, CreateRoom, JoinRoom, LeaveRoom, GameAction or ChatMessage.
type Inbound interface {
	Kind() Event

	// rejection is the message sent back when the payload fails validation.
	// Empty means the frame is dropped without a reply.
	rejection() string
}

// SetUsername asks to change the sender's display name.
type SetUsername struct {
	Username *string `json:"username"`
}

func (SetUsername) Kind() Event { return EventSetUsername }
func (SetUsername) rejection() string { return MsgInvalidUsername }

// NameOr returns the requested name, or fallback when the frame carried none
func (m SetUsername) NameOr(fallback string) string {
	if m.Username == nil {
		return fallback
	}
	return *m.Username
}

// CreateRoom asks for a new room with the sender as its first member.
type CreateRoom struct {
	GameType   string `json:"game_type" validate:"required"`
	MaxPlayers *int   `json:"max_players,omitempty" validate:"omitempty,min=1"`
}

func (CreateRoom) Kind() Event { return EventCreateRoom }

func (m CreateRoom) rejection() string {
	if m.GameType == "" {
		return MsgGameTypeRequired
	}
	return MsgInvalidMaxPlayers
}

// JoinRoom asks to join an existing room.
type JoinRoom struct {
	RoomID string `json:"room_id" validate:"required"`
}

func (JoinRoom) Kind() Event { return EventJoinRoom }
func (JoinRoom) rejection() string { return MsgInvalidRoomID }

// LeaveRoom asks to leave the sender's current room.
type LeaveRoom struct {
	RoomID string `json:"room_id" validate:"required"`
}

func (LeaveRoom) Kind() Event { return EventLeaveRoom }
func (LeaveRoom) rejection() string { return MsgInvalidRoomID }

// GameAction is relayed to the other members of the room. Action and Data
// are opaque; an empty action is relayed as is.
type GameAction struct {
	RoomID string          `json:"room_id" validate:"required"`
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

func (GameAction) Kind() Event { return EventGameAction }
func (GameAction) rejection() string { return "" }

// ChatMessage is relayed to every member of the room, empty text included.
type ChatMessage struct {
	RoomID  string `json:"room_id" validate:"required"`
	Message string `json:"message"`
}

func (ChatMessage) Kind() Event { return EventChatMessage }
func (ChatMessage) rejection() string { return "" }

// Player identifies a room member in outbound payloads.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Connected acknowledges a new connection.
type Connected struct {
	PlayerID string `json:"player_id"`
}

// UsernameSet acknowledges set_username.
type UsernameSet struct {
	Success bool `json:"success"`
}

// RoomCreated acknowledges create_room.
type RoomCreated struct {
	RoomID   string `json:"room_id"`
	GameType string `json:"game_type"`
}

// PlayerJoined announces a new member to the room.
type PlayerJoined = Player

// RoomJoined gives a joiner everything needed to rebuild the room locally.
type RoomJoined struct {
	RoomID    string          `json:"room_id"`
	GameType  string          `json:"game_type"`
	Players   []Player        `json:"players"`
	GameState json.RawMessage `json:"game_state"`
}

// PlayerLeft announces a departed member to the survivors.
type PlayerLeft struct {
	PlayerID string `json:"player_id"`
}

// RoomLeft acknowledges leave_room.
type RoomLeft struct {
	Success bool `json:"success"`
}

// Error reports a rejected request to its sender.
type Error struct {
	Message string `json:"message"`
}

// GameActionRelay is the outbound form of a game action.
type GameActionRelay struct {
	PlayerID string          `json:"player_id"`
	Action   string          `json:"action"`
	Data     json.RawMessage `json:"data"`
}

// ChatRelay is the outbound form of a chat message, stamped by the server.
type ChatRelay struct {
	PlayerID  string `json:"player_id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

package room

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// Member is one entry of a room's membership list
type Member struct {
	PlayerID string `json:"id"`
	Username string `json:"username"`
}

// Room is the registry's mutable record of one multiplayer session
type Room struct {
	ID        string
	GameType  string
	Capacity  int
	Players   []Member
	GameState json.RawMessage
	CreatedAt time.Time

	mu      sync.Mutex
	deleted bool
}

// Snapshot is an immutable copy of a room taken under its lock
type Snapshot struct {
	RoomID    string          `json:"room_id"`
	GameType  string          `json:"game_type"`
	Capacity  int             `json:"max_players"`
	Players   []Member        `json:"players"`
	GameState json.RawMessage `json:"game_state"`
	CreatedAt time.Time       `json:"created_at"`
}

// HasPlayer reports whether playerID appears in the snapshot's membership
func (s Snapshot) HasPlayer(playerID string) bool {
	return lo.ContainsBy(s.Players, func(m Member) bool {
		return m.PlayerID == playerID
	})
}

// Summary describes a room for listings
type Summary struct {
	ID          string    `json:"room_id"`
	GameType    string    `json:"game_type"`
	Capacity    int       `json:"max_players"`
	PlayerCount int       `json:"player_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeaveStatus classifies the outcome of Registry.Leave
type LeaveStatus int

const (
	// LeaveUnknownRoom means the room did not exist (already deleted or never created).
	LeaveUnknownRoom LeaveStatus = iota
	// LeaveEmpty means the last member left and the room was deleted.
	LeaveEmpty
	// LeaveStillOccupied means other members remain.
	LeaveStillOccupied
)

func (s LeaveStatus) String() string {
	switch s {
	case LeaveEmpty:
		return "empty"
	case LeaveStillOccupied:
		return "still_occupied"
	default:
		return "unknown_room"
	}
}

// LeaveResult carries the surviving membership when the room still exists
type LeaveResult struct {
	Status    LeaveStatus
	Remaining []Member
}

func (r *Room) members() []Member {
	out := make([]Member, len(r.Players))
	copy(out, r.Players)
	return out
}

func (r *Room) snapshot() Snapshot {
	return Snapshot{
		RoomID:    r.ID,
		GameType:  r.GameType,
		Capacity:  r.Capacity,
		Players:   r.members(),
		GameState: cloneState(r.GameState),
		CreatedAt: r.CreatedAt,
	}
}

func (r *Room) summary() Summary {
	return Summary{
		ID:          r.ID,
		GameType:    r.GameType,
		Capacity:    r.Capacity,
		PlayerCount: len(r.Players),
		CreatedAt:   r.CreatedAt,
	}
}

func cloneState(state json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(state))
	copy(out, state)
	return out
}

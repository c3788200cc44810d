package room

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	// DefaultCapacity is used when a room is created without max_players.
	DefaultCapacity = 4

	// ActionUpdateState replaces the room's game state with the action payload.
	ActionUpdateState = "update_state"

	idLength = 8
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrInvalidCapacity = errors.New("capacity must be a positive integer")
	ErrRoomExists      = errors.New("room already exists")
)

// emptyState is the game state every room starts with.
var emptyState = json.RawMessage(`{}`)

// Registry owns every live room. The map is guarded by mu, each room's
// contents by its own mutex. A room's mutex may be held while taking mu,
// never the other way round.
type Registry struct {
	rooms map[string]*Room
	mu    sync.RWMutex

	newID func() string
}

// NewRegistry creates an empty room registry
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		newID: generateRoomID,
	}
}

// Create registers a room holding owner as its only member and returns the
// room's identifier.
func (r *Registry) Create(owner Member, gameType string, capacity int) (string, error) {
	if capacity < 1 {
		return "", ErrInvalidCapacity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for r.roomExists(id) {
		id = r.newID()
	}
	r.insert(id, owner, gameType, capacity)
	return id, nil
}

// NewID returns an identifier no live room uses. The identifier is not
// reserved; CreateWithID reports a lost race with ErrRoomExists.
func (r *Registry) NewID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id := r.newID()
	for r.roomExists(id) {
		id = r.newID()
	}
	return id
}

// CreateWithID registers a room under id holding owner as its only member
func (r *Registry) CreateWithID(id string, owner Member, gameType string, capacity int) error {
	if capacity < 1 {
		return ErrInvalidCapacity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roomExists(id) {
		return ErrRoomExists
	}
	r.insert(id, owner, gameType, capacity)
	return nil
}

func (r *Registry) insert(id string, owner Member, gameType string, capacity int) {
	r.rooms[id] = &Room{
		ID:        id,
		GameType:  gameType,
		Capacity:  capacity,
		Players:   []Member{owner},
		GameState: emptyState,
		CreatedAt: time.Now(),
	}
}

// Join appends member to the room and returns the resulting snapshot. A full
// room is left untouched. Joining twice appends a second entry; callers that
// need set semantics must check membership first.
func (r *Registry) Join(roomID string, member Member) (Snapshot, error) {
	room, err := r.get(roomID)
	if err != nil {
		return Snapshot{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return Snapshot{}, ErrRoomNotFound
	}
	if len(room.Players) >= room.Capacity {
		return Snapshot{}, ErrRoomFull
	}

	room.Players = append(room.Players, member)
	return room.snapshot(), nil
}

// Leave removes every membership entry of playerID. The room is deleted as
// soon as its membership becomes empty. An unknown room yields LeaveUnknownRoom.
func (r *Registry) Leave(roomID, playerID string) LeaveResult {
	room, err := r.get(roomID)
	if err != nil {
		return LeaveResult{Status: LeaveUnknownRoom}
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return LeaveResult{Status: LeaveUnknownRoom}
	}

	room.Players = lo.Reject(room.Players, func(m Member, _ int) bool {
		return m.PlayerID == playerID
	})

	if len(room.Players) == 0 {
		room.deleted = true
		r.mu.Lock()
		delete(r.rooms, roomID)
		r.mu.Unlock()
		return LeaveResult{Status: LeaveEmpty}
	}

	return LeaveResult{
		Status:    LeaveStillOccupied,
		Remaining: room.members(),
	}
}

// ApplyAction interprets a game action against the room. update_state
// replaces the game state wholesale and returns it; every other action kind
// is relay-only and returns applied == false.
func (r *Registry) ApplyAction(roomID, kind string, payload json.RawMessage) (json.RawMessage, bool, error) {
	room, err := r.get(roomID)
	if err != nil {
		return nil, false, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return nil, false, ErrRoomNotFound
	}
	if kind != ActionUpdateState {
		return nil, false, nil
	}

	if len(payload) == 0 {
		payload = emptyState
	}
	state := make(json.RawMessage, len(payload))
	copy(state, payload)
	room.GameState = state

	return cloneState(state), true, nil
}

// Snapshot returns a consistent copy of the room
func (r *Registry) Snapshot(roomID string) (Snapshot, error) {
	room, err := r.get(roomID)
	if err != nil {
		return Snapshot{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return Snapshot{}, ErrRoomNotFound
	}
	return room.snapshot(), nil
}

// Members returns the room's membership in join order
func (r *Registry) Members(roomID string) ([]Member, error) {
	room, err := r.get(roomID)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return nil, ErrRoomNotFound
	}
	return room.members(), nil
}

// List returns a summary of every room, oldest first
func (r *Registry) List() []Summary {
	r.mu.RLock()
	rooms := lo.Values(r.rooms)
	r.mu.RUnlock()

	result := make([]Summary, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		if !room.deleted {
			result = append(result, room.summary())
		}
		room.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Exists reports whether roomID currently resolves to a room
func (r *Registry) Exists(roomID string) bool {
	_, err := r.get(roomID)
	return err == nil
}

// Count returns the number of live rooms
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) get(roomID string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (r *Registry) roomExists(id string) bool {
	_, exists := r.rooms[id]
	return exists
}

// generateRoomID returns the first 8 characters of a random UUID
func generateRoomID() string {
	return uuid.NewString()[:idLength]
}

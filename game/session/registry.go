package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultUsername is the display name a connection carries until it sets one.
const DefaultUsername = "Anonymous"

var (
	ErrUnknownConnection = errors.New("unknown connection")
)

// Connection is the registry's record of one live transport session.
type Connection struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"player_id"`
	Username    string    `json:"username"`
	RoomID      string    `json:"room_id,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
}

// InRoom reports whether the connection is currently associated with a room
func (c Connection) InRoom() bool {
	return c.RoomID != ""
}

// Registry maps live connections to player identity and current room
type Registry struct {
	connections map[string]*Connection
	byPlayer    map[string]string
	mu          sync.RWMutex
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*Connection),
		byPlayer:    make(map[string]string),
	}
}

// Register creates a record for connID with a fresh player ID, the default
// display name and no room. Registering an ID that is already present
// replaces its record.
func (r *Registry) Register(connID string) string {
	playerID := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.connections[connID]; exists {
		delete(r.byPlayer, old.PlayerID)
	}

	r.connections[connID] = &Connection{
		ID:          connID,
		PlayerID:    playerID,
		Username:    DefaultUsername,
		ConnectedAt: time.Now(),
	}
	r.byPlayer[playerID] = connID

	return playerID
}

// SetDisplayName replaces the display name of a registered connection.
// Empty and duplicate names are accepted.
func (r *Registry) SetDisplayName(connID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.connections[connID]
	if !exists {
		return ErrUnknownConnection
	}
	conn.Username = name
	return nil
}

// SetRoom records the room a connection belongs to. An empty roomID clears it.
func (r *Registry) SetRoom(connID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.connections[connID]
	if !exists {
		return ErrUnknownConnection
	}
	conn.RoomID = roomID
	return nil
}

// Lookup returns a copy of the connection record
func (r *Registry) Lookup(connID string) (Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.connections[connID]
	if !exists {
		return Connection{}, ErrUnknownConnection
	}
	return *conn, nil
}

// Unregister removes the connection and returns its last known state
func (r *Registry) Unregister(connID string) (Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.connections[connID]
	if !exists {
		return Connection{}, ErrUnknownConnection
	}
	delete(r.connections, connID)
	delete(r.byPlayer, conn.PlayerID)

	return *conn, nil
}

// ConnectionFor resolves the connection currently occupied by playerID
func (r *Registry) ConnectionFor(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.byPlayer[playerID]
	return connID, ok
}

// List returns a copy of every registered connection, oldest first
func (r *Registry) List() []Connection {
	r.mu.RLock()
	result := make([]Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		result = append(result, *conn)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].ConnectedAt.Before(result[j].ConnectedAt)
	})
	return result
}

// Count returns the number of registered connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

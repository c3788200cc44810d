package service

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/wricardo/gameroom/game/broadcast"
	"github.com/wricardo/gameroom/game/room"
	"github.com/wricardo/gameroom/game/session"
)

// CapacityPolicy supplies the capacity of rooms created without max_players
type CapacityPolicy interface {
	DefaultCapacity(gameType string) int
}

type fixedCapacity int

func (c fixedCapacity) DefaultCapacity(string) int { return int(c) }

// Lifecycle owns every multi-step change to connections and rooms: connect,
// rename, disconnect, create, join, leave and the two room relays. Each step
// that touches a room runs under that room's guard, and the frames it
// produces are queued before the guard is released.
type Lifecycle struct {
	conns *session.Registry
	rooms *room.Registry
	out   *broadcast.Dispatcher

	capacity  CapacityPolicy
	chatLimit int
	now       func() time.Time
	guard     roomGuard
	log       zerolog.Logger
}

// Option configures a Lifecycle
type Option func(*Lifecycle)

// WithCapacityPolicy sets where default room capacities come from
func WithCapacityPolicy(p CapacityPolicy) Option {
	return func(l *Lifecycle) {
		if p != nil {
			l.capacity = p
		}
	}
}

// WithChatLimit drops chat messages longer than n characters. Zero disables the limit.
func WithChatLimit(n int) Option {
	return func(l *Lifecycle) { l.chatLimit = n }
}

// WithClock replaces the clock used for chat timestamps
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) { l.now = now }
}

// NewLifecycle wires the registries and the dispatcher together
func NewLifecycle(conns *session.Registry, rooms *room.Registry, out *broadcast.Dispatcher, log zerolog.Logger, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		conns:    conns,
		rooms:    rooms,
		out:      out,
		capacity: fixedCapacity(room.DefaultCapacity),
		now:      time.Now,
		log:      log.With().Str("module", "lifecycle").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lifecycle) lookup(connID string) (session.Connection, bool) {
	conn, err := l.conns.Lookup(connID)
	if err != nil {
		l.log.Debug().Str("conn_id", connID).Err(err).Msg("event for unknown connection ignored")
		return session.Connection{}, false
	}
	return conn, true
}

func member(conn session.Connection) room.Member {
	return room.Member{PlayerID: conn.PlayerID, Username: conn.Username}
}

package broadcast

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/wricardo/gameroom/game/protocol"
	"github.com/wricardo/gameroom/game/room"
)

var (
	ErrUnknownRecipient = errors.New("unknown recipient")
	ErrRecipientBusy    = errors.New("recipient send buffer full")
)

// Sender hands an encoded frame to a connection's outbound queue. It must
// not block on network I/O.
type Sender interface {
	Send(connID string, frame []byte) error
}

// MemberSource resolves the current membership of a room
type MemberSource interface {
	Members(roomID string) ([]room.Member, error)
}

// ConnectionResolver maps a player to the connection it occupies
type ConnectionResolver interface {
	ConnectionFor(playerID string) (string, bool)
}

// Dispatcher is the only path by which outbound events reach connections.
// Every payload is encoded once per call and delivered fire-and-forget: a
// failure for one recipient is logged and never stops the others.
type Dispatcher struct {
	sender Sender
	rooms  MemberSource
	conns  ConnectionResolver
	log    zerolog.Logger
}

// NewDispatcher creates a dispatcher delivering through sender
func NewDispatcher(sender Sender, rooms MemberSource, conns ConnectionResolver, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		rooms:  rooms,
		conns:  conns,
		log:    log.With().Str("module", "broadcast").Logger(),
	}
}

// ToOne delivers an event to a single connection
func (d *Dispatcher) ToOne(connID string, event protocol.Event, payload any) bool {
	frame, ok := d.encode(event, payload)
	if !ok {
		return false
	}
	return d.deliver(connID, event, frame)
}

// ToRoom delivers an event to every member of roomID except the connection
// exclude (empty excludes nobody). It returns the number of recipients the
// frame was handed to.
func (d *Dispatcher) ToRoom(roomID string, event protocol.Event, payload any, exclude string) int {
	members, err := d.rooms.Members(roomID)
	if err != nil {
		d.log.Debug().Str("room_id", roomID).Str("event", string(event)).Err(err).Msg("broadcast target gone")
		return 0
	}
	return d.ToMembers(members, event, payload, exclude)
}

// ToMembers delivers an event to a membership snapshot the caller already holds
func (d *Dispatcher) ToMembers(members []room.Member, event protocol.Event, payload any, exclude string) int {
	if len(members) == 0 {
		return 0
	}

	frame, ok := d.encode(event, payload)
	if !ok {
		return 0
	}

	delivered := 0
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		connID, ok := d.conns.ConnectionFor(m.PlayerID)
		if !ok {
			d.log.Debug().Str("player_id", m.PlayerID).Str("event", string(event)).Msg("member has no live connection")
			continue
		}
		if connID == exclude {
			continue
		}
		if _, dup := seen[connID]; dup {
			continue
		}
		seen[connID] = struct{}{}

		if d.deliver(connID, event, frame) {
			delivered++
		}
	}
	return delivered
}

func (d *Dispatcher) encode(event protocol.Event, payload any) ([]byte, bool) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		d.log.Error().Err(err).Str("event", string(event)).Msg("failed to encode outbound event")
		return nil, false
	}
	return frame, true
}

func (d *Dispatcher) deliver(connID string, event protocol.Event, frame []byte) bool {
	if err := d.sender.Send(connID, frame); err != nil {
		d.log.Debug().Err(err).Str("conn_id", connID).Str("event", string(event)).Msg("dropped outbound event")
		return false
	}
	return true
}

package service

import (
	"context"

	"github.com/wricardo/gameroom/game/protocol"
	"github.com/wricardo/gameroom/game/room"
)

// OnConnect registers a new connection and acknowledges it with the fresh
// player ID. A non-empty displayName replaces the default name.
func (l *Lifecycle) OnConnect(ctx context.Context, connID, displayName string) string {
	playerID := l.conns.Register(connID)
	if displayName != "" {
		// the record was created above, so only a racing disconnect can fail this
		if err := l.conns.SetDisplayName(connID, displayName); err != nil {
			l.log.Debug().Str("conn_id", connID).Err(err).Msg("connection gone before display name applied")
		}
	}

	l.log.Info().Str("conn_id", connID).Str("player_id", playerID).Msg("connection registered")
	l.out.ToOne(connID, protocol.EventConnected, protocol.Connected{PlayerID: playerID})
	return playerID
}

// OnRename replaces the connection's display name. Rooms the player already
// joined keep the name they joined with.
func (l *Lifecycle) OnRename(ctx context.Context, connID, name string) {
	if err := l.conns.SetDisplayName(connID, name); err != nil {
		l.log.Debug().Str("conn_id", connID).Err(err).Msg("rename for unknown connection ignored")
		return
	}
	l.out.ToOne(connID, protocol.EventUsernameSet, protocol.UsernameSet{Success: true})
}

// OnDisconnect tears the connection down and removes it from its room. The
// record is dropped under the room's guard, so no one in the room sees the
// member without its connection.
func (l *Lifecycle) OnDisconnect(ctx context.Context, connID string) {
	conn, ok := l.lookup(connID)
	if !ok {
		return
	}

	unlock := l.guard.lock(conn.RoomID)
	defer unlock()

	conn, err := l.conns.Unregister(connID)
	if err != nil {
		l.log.Debug().Str("conn_id", connID).Err(err).Msg("disconnect for unknown connection ignored")
		return
	}

	l.log.Info().Str("conn_id", connID).Str("player_id", conn.PlayerID).Str("room_id", conn.RoomID).Msg("connection closed")
	if conn.InRoom() {
		l.departLocked(conn.RoomID, conn.PlayerID)
	}
}

// departLocked removes playerID from roomID and tells the survivors. The
// caller holds the room's guard.
func (l *Lifecycle) departLocked(roomID, playerID string) {
	res := l.rooms.Leave(roomID, playerID)
	switch res.Status {
	case room.LeaveEmpty:
		l.log.Info().Str("room_id", roomID).Msg("room closed")
	case room.LeaveStillOccupied:
		l.out.ToMembers(res.Remaining, protocol.EventPlayerLeft, protocol.PlayerLeft{PlayerID: playerID}, "")
	case room.LeaveUnknownRoom:
		l.log.Debug().Str("room_id", roomID).Str("player_id", playerID).Msg("left a room that no longer exists")
	}
}

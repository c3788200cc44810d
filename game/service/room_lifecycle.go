package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/wricardo/gameroom/game/protocol"
	"github.com/wricardo/gameroom/game/room"
	"github.com/wricardo/gameroom/game/session"
)

// OnCreate opens a room with the sender as its first member. A sender that
// is already in a room leaves it first. A nil capacity means the game type's
// default.
func (l *Lifecycle) OnCreate(ctx context.Context, connID, gameType string, capacity *int) {
	conn, ok := l.lookup(connID)
	if !ok {
		return
	}

	limit := l.capacity.DefaultCapacity(gameType)
	if capacity != nil {
		limit = *capacity
	}
	if limit < 1 {
		l.reject(connID, protocol.MsgInvalidMaxPlayers)
		return
	}

	if conn.InRoom() {
		l.leave(conn)
	}

	roomID, unlock, err := l.openRoom(member(conn), gameType, limit)
	if err != nil {
		l.log.Warn().Str("conn_id", connID).Err(err).Msg("room creation failed")
		l.reject(connID, protocol.MsgInvalidMaxPlayers)
		return
	}
	defer unlock()

	if err := l.conns.SetRoom(connID, roomID); err != nil {
		// the connection vanished while creating, undo the room
		l.departLocked(roomID, conn.PlayerID)
		return
	}

	l.log.Info().Str("room_id", roomID).Str("game_type", gameType).Int("max_players", limit).Str("player_id", conn.PlayerID).Msg("room created")
	l.out.ToOne(connID, protocol.EventRoomCreated, protocol.RoomCreated{RoomID: roomID, GameType: gameType})
}

// OnJoin adds the sender to an existing room. Joining the room the sender is
// already in re-sends room_joined and changes nothing. Joining another room
// leaves the current one, but only once the target is known to have a free
// seat; both rooms stay locked from that check until the join completes.
func (l *Lifecycle) OnJoin(ctx context.Context, connID, roomID string) {
	conn, ok := l.lookup(connID)
	if !ok {
		return
	}
	if roomID == "" {
		l.reject(connID, protocol.MsgInvalidRoomID)
		return
	}

	if conn.RoomID == roomID {
		l.resendJoined(conn)
		return
	}

	unlock := l.guard.lockPair(conn.RoomID, roomID)
	defer unlock()

	target, err := l.rooms.Snapshot(roomID)
	if err != nil {
		l.reject(connID, protocol.MsgInvalidRoomID)
		return
	}
	if len(target.Players) >= target.Capacity {
		l.reject(connID, protocol.MsgRoomFull)
		return
	}

	if conn.InRoom() {
		l.leaveLocked(conn)
	}

	snap, err := l.rooms.Join(roomID, member(conn))
	switch {
	case errors.Is(err, room.ErrRoomFull):
		l.reject(connID, protocol.MsgRoomFull)
		return
	case err != nil:
		l.reject(connID, protocol.MsgInvalidRoomID)
		return
	}

	if err := l.conns.SetRoom(connID, roomID); err != nil {
		l.departLocked(roomID, conn.PlayerID)
		return
	}

	l.log.Info().Str("room_id", roomID).Str("player_id", conn.PlayerID).Int("players", len(snap.Players)).Msg("player joined")
	l.out.ToMembers(snap.Players, protocol.EventPlayerJoined, protocol.PlayerJoined{ID: conn.PlayerID, Username: conn.Username}, "")
	l.out.ToOne(connID, protocol.EventRoomJoined, roomJoined(snap))
}

// OnLeave removes the sender from the named room, which must be the room the
// sender is in.
func (l *Lifecycle) OnLeave(ctx context.Context, connID, roomID string) {
	conn, ok := l.lookup(connID)
	if !ok {
		return
	}
	if roomID == "" || !l.rooms.Exists(roomID) {
		l.reject(connID, protocol.MsgInvalidRoomID)
		return
	}
	if conn.RoomID != roomID {
		l.reject(connID, protocol.MsgNotInRoom)
		return
	}

	l.leave(conn)
	l.out.ToOne(connID, protocol.EventRoomLeft, protocol.RoomLeft{Success: true})
}

// RelayAction forwards a game action to the rest of the sender's room.
// update_state actions replace the room's game state before they are relayed.
func (l *Lifecycle) RelayAction(ctx context.Context, connID string, msg protocol.GameAction) {
	unlock := l.guard.lock(msg.RoomID)
	defer unlock()

	conn, ok := l.authorize(connID, msg.RoomID, protocol.EventGameAction)
	if !ok {
		return
	}

	if _, _, err := l.rooms.ApplyAction(msg.RoomID, msg.Action, msg.Data); err != nil {
		l.log.Debug().Str("room_id", msg.RoomID).Err(err).Msg("game action for vanished room dropped")
		return
	}

	l.out.ToRoom(msg.RoomID, protocol.EventGameAction, protocol.GameActionRelay{
		PlayerID: conn.PlayerID,
		Action:   msg.Action,
		Data:     msg.Data,
	}, connID)
}

// RelayChat stamps a chat message with the sender's current name and the
// server time and sends it to the whole room, sender included.
func (l *Lifecycle) RelayChat(ctx context.Context, connID string, msg protocol.ChatMessage) {
	if l.chatLimit > 0 && utf8.RuneCountInString(msg.Message) > l.chatLimit {
		l.log.Debug().Str("conn_id", connID).Int("limit", l.chatLimit).Msg("oversized chat message dropped")
		return
	}

	unlock := l.guard.lock(msg.RoomID)
	defer unlock()

	conn, ok := l.authorize(connID, msg.RoomID, protocol.EventChatMessage)
	if !ok {
		return
	}

	l.out.ToRoom(msg.RoomID, protocol.EventChatMessage, protocol.ChatRelay{
		PlayerID:  conn.PlayerID,
		Username:  conn.Username,
		Message:   msg.Message,
		Timestamp: l.now().Format(protocol.ChatTimeFormat),
	}, "")
}

// authorize checks that connID currently sits in roomID. The caller holds
// the room's guard. Failures are dropped without a reply.
func (l *Lifecycle) authorize(connID, roomID string, event protocol.Event) (session.Connection, bool) {
	conn, ok := l.lookup(connID)
	if !ok {
		return conn, false
	}
	if !conn.InRoom() || conn.RoomID != roomID {
		l.log.Debug().
			Str("conn_id", connID).
			Str("event", string(event)).
			Str("room_id", roomID).
			Str("member_of", conn.RoomID).
			Msg("relay from non-member dropped")
		return conn, false
	}
	return conn, true
}

// leave takes conn out of its current room
func (l *Lifecycle) leave(conn session.Connection) {
	unlock := l.guard.lock(conn.RoomID)
	defer unlock()
	l.leaveLocked(conn)
}

// leaveLocked is leave for a caller already holding the room's guard
func (l *Lifecycle) leaveLocked(conn session.Connection) {
	if err := l.conns.SetRoom(conn.ID, ""); err != nil {
		l.log.Debug().Str("conn_id", conn.ID).Err(err).Msg("leaving connection already gone")
	}
	l.departLocked(conn.RoomID, conn.PlayerID)
}

// openRoom creates a room for owner and returns it with its guard held, so
// nothing can reach the room before the caller finishes setting it up.
func (l *Lifecycle) openRoom(owner room.Member, gameType string, capacity int) (string, func(), error) {
	for {
		roomID := l.rooms.NewID()
		unlock := l.guard.lock(roomID)
		err := l.rooms.CreateWithID(roomID, owner, gameType, capacity)
		if err == nil {
			return roomID, unlock, nil
		}
		unlock()
		if !errors.Is(err, room.ErrRoomExists) {
			return "", nil, err
		}
	}
}

func (l *Lifecycle) resendJoined(conn session.Connection) {
	unlock := l.guard.lock(conn.RoomID)
	defer unlock()

	snap, err := l.rooms.Snapshot(conn.RoomID)
	if err != nil {
		l.reject(conn.ID, protocol.MsgInvalidRoomID)
		return
	}
	l.out.ToOne(conn.ID, protocol.EventRoomJoined, roomJoined(snap))
}

func (l *Lifecycle) reject(connID, message string) {
	l.out.ToOne(connID, protocol.EventError, protocol.Error{Message: message})
}

func roomJoined(snap room.Snapshot) protocol.RoomJoined {
	state := snap.GameState
	if len(state) == 0 {
		state = json.RawMessage(`{}`)
	}
	return protocol.RoomJoined{
		RoomID:   snap.RoomID,
		GameType: snap.GameType,
		Players: lo.Map(snap.Players, func(m room.Member, _ int) protocol.Player {
			return protocol.Player{ID: m.PlayerID, Username: m.Username}
		}),
		GameState: state,
	}
}

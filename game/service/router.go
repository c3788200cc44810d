package service

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/wricardo/gameroom/game/protocol"
	"github.com/wricardo/gameroom/game/session"
)

type handlerFunc func(ctx context.Context, connID string, msg protocol.Inbound)

// Router is the entry point for every inbound frame. It decodes the frame,
// answers payload rejections and dispatches to the lifecycle. It holds no
// state beyond its dispatch table.
type Router struct {
	lifecycle *Lifecycle
	handlers  map[protocol.Event]handlerFunc
	log       zerolog.Logger
}

// NewRouter creates a router dispatching to lifecycle
func NewRouter(lifecycle *Lifecycle, log zerolog.Logger) *Router {
	r := &Router{
		lifecycle: lifecycle,
		log:       log.With().Str("module", "router").Logger(),
	}
	r.handlers = map[protocol.Event]handlerFunc{
		protocol.EventSetUsername: r.setUsername,
		protocol.EventCreateRoom:  r.createRoom,
		protocol.EventJoinRoom:    r.joinRoom,
		protocol.EventLeaveRoom:   r.leaveRoom,
		protocol.EventGameAction:  r.gameAction,
		protocol.EventChatMessage: r.chatMessage,
	}
	return r
}

// Connect handles a transport-level connect and returns the player ID
func (r *Router) Connect(ctx context.Context, connID, displayName string) string {
	return r.lifecycle.OnConnect(ctx, connID, displayName)
}

// Disconnect handles a transport-level disconnect, clean or abrupt
func (r *Router) Disconnect(ctx context.Context, connID string) {
	defer r.recover(connID, protocol.EventDisconnect)
	r.lifecycle.OnDisconnect(ctx, connID)
}

// Handle processes one frame from connID. Frames from the same connection
// must be handed over one at a time, in arrival order.
func (r *Router) Handle(ctx context.Context, connID string, frame []byte) {
	if ctx.Err() != nil {
		return
	}

	msg, err := protocol.Decode(frame)
	if err != nil {
		r.rejectFrame(connID, err)
		return
	}

	handler, ok := r.handlers[msg.Kind()]
	if !ok {
		r.log.Debug().Str("conn_id", connID).Str("event", string(msg.Kind())).Msg("no handler for event")
		return
	}

	defer r.recover(connID, msg.Kind())
	handler(ctx, connID, msg)
}

func (r *Router) rejectFrame(connID string, err error) {
	var invalid *protocol.InvalidPayloadError
	if errors.As(err, &invalid) && invalid.Message != "" {
		r.lifecycle.reject(connID, invalid.Message)
		return
	}
	r.log.Debug().Str("conn_id", connID).Err(err).Msg("frame dropped")
}

// recover keeps a failing handler from taking the connection's read loop down
func (r *Router) recover(connID string, event protocol.Event) {
	if rec := recover(); rec != nil {
		r.log.Error().
			Str("conn_id", connID).
			Str("event", string(event)).
			Interface("panic", rec).
			Bytes("stack", debug.Stack()).
			Msg("handler panicked")
	}
}

func (r *Router) setUsername(ctx context.Context, connID string, msg protocol.Inbound) {
	m := msg.(protocol.SetUsername)
	r.lifecycle.OnRename(ctx, connID, m.NameOr(session.DefaultUsername))
}

func (r *Router) createRoom(ctx context.Context, connID string, msg protocol.Inbound) {
	m := msg.(protocol.CreateRoom)
	r.lifecycle.OnCreate(ctx, connID, m.GameType, m.MaxPlayers)
}

func (r *Router) joinRoom(ctx context.Context, connID string, msg protocol.Inbound) {
	r.lifecycle.OnJoin(ctx, connID, msg.(protocol.JoinRoom).RoomID)
}

func (r *Router) leaveRoom(ctx context.Context, connID string, msg protocol.Inbound) {
	r.lifecycle.OnLeave(ctx, connID, msg.(protocol.LeaveRoom).RoomID)
}

func (r *Router) gameAction(ctx context.Context, connID string, msg protocol.Inbound) {
	r.lifecycle.RelayAction(ctx, connID, msg.(protocol.GameAction))
}

func (r *Router) chatMessage(ctx context.Context, connID string, msg protocol.Inbound) {
	r.lifecycle.RelayChat(ctx, connID, msg.(protocol.ChatMessage))
}

package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/gameroom/game/broadcast"
	"github.com/wricardo/gameroom/game/protocol"
	"github.com/wricardo/gameroom/game/room"
	"github.com/wricardo/gameroom/game/service"
	"github.com/wricardo/gameroom/game/session"
)

var fixedNow = time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)

// outbox records every frame queued for each connection
type outbox struct {
	mu     sync.Mutex
	frames map[string][]protocol.Envelope
}

func newOutbox() *outbox {
	return &outbox{frames: make(map[string][]protocol.Envelope)}
}

func (o *outbox) Send(connID string, frame []byte) error {
	var env protocol.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frames[connID] = append(o.frames[connID], env)
	return nil
}

func (o *outbox) events(connID string) []protocol.Envelope {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]protocol.Envelope(nil), o.frames[connID]...)
}

func (o *outbox) kinds(connID string) []protocol.Event {
	var kinds []protocol.Event
	for _, env := range o.events(connID) {
		kinds = append(kinds, env.Event)
	}
	return kinds
}

func (o *outbox) clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frames = make(map[string][]protocol.Envelope)
}

type harness struct {
	t      *testing.T
	conns  *session.Registry
	rooms  *room.Registry
	out    *outbox
	router *service.Router
}

func newHarness(t *testing.T, opts ...service.Option) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		conns: session.NewRegistry(),
		rooms: room.NewRegistry(),
		out:   newOutbox(),
	}
	dispatcher := broadcast.NewDispatcher(h.out, h.rooms, h.conns, zerolog.Nop())
	opts = append([]service.Option{service.WithClock(func() time.Time { return fixedNow })}, opts...)
	lifecycle := service.NewLifecycle(h.conns, h.rooms, dispatcher, zerolog.Nop(), opts...)
	h.router = service.NewRouter(lifecycle, zerolog.Nop())
	return h
}

func (h *harness) connect(connID string) string {
	return h.router.Connect(h.t.Context(), connID, "")
}

func (h *harness) send(connID string, event protocol.Event, data any) {
	h.t.Helper()
	frame, err := json.Marshal(map[string]any{"event": event, "data": data})
	require.NoError(h.t, err)
	h.router.Handle(h.t.Context(), connID, frame)
}

func (h *harness) disconnect(connID string) {
	h.router.Disconnect(h.t.Context(), connID)
}

// createRoom has connID open a room and returns its ID
func (h *harness) createRoom(connID, gameType string, maxPlayers int) string {
	h.t.Helper()
	h.send(connID, protocol.EventCreateRoom, map[string]any{"game_type": gameType, "max_players": maxPlayers})
	var created protocol.RoomCreated
	h.lastPayload(connID, protocol.EventRoomCreated, &created)
	require.NotEmpty(h.t, created.RoomID)
	return created.RoomID
}

// lastPayload decodes the most recent event of the given kind sent to connID
func (h *harness) lastPayload(connID string, event protocol.Event, into any) {
	h.t.Helper()
	events := h.out.events(connID)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Event == event {
			require.NoError(h.t, json.Unmarshal(events[i].Data, into))
			return
		}
	}
	h.t.Fatalf("connection %s received no %s event, got %v", connID, event, h.out.kinds(connID))
}

func (h *harness) lastError(connID string) string {
	h.t.Helper()
	var e protocol.Error
	h.lastPayload(connID, protocol.EventError, &e)
	return e.Message
}

// checkConsistency asserts membership symmetry and that no room is empty
func (h *harness) checkConsistency() {
	h.t.Helper()

	for _, conn := range h.conns.List() {
		if !conn.InRoom() {
			continue
		}
		snap, err := h.rooms.Snapshot(conn.RoomID)
		require.NoError(h.t, err, "connection %s points at missing room %s", conn.ID, conn.RoomID)

		count := 0
		for _, m := range snap.Players {
			if m.PlayerID == conn.PlayerID {
				count++
			}
		}
		assert.Equal(h.t, 1, count, "player %s appears %d times in room %s", conn.PlayerID, count, conn.RoomID)
	}

	for _, summary := range h.rooms.List() {
		assert.Positive(h.t, summary.PlayerCount, "room %s is empty", summary.ID)
		assert.LessOrEqual(h.t, summary.PlayerCount, summary.Capacity, "room %s over capacity", summary.ID)

		members, err := h.rooms.Members(summary.ID)
		if err != nil {
			continue
		}
		for _, m := range members {
			connID, ok := h.conns.ConnectionFor(m.PlayerID)
			require.True(h.t, ok, "room %s lists player %s with no connection", summary.ID, m.PlayerID)
			conn, err := h.conns.Lookup(connID)
			require.NoError(h.t, err)
			assert.Equal(h.t, summary.ID, conn.RoomID, "player %s listed in room it does not record", m.PlayerID)
		}
	}
}

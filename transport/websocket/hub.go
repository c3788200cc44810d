package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/wricardo/gameroom/game/broadcast"
	"github.com/wricardo/gameroom/game/identity"
)

// Options tunes the transport. Zero fields take the defaults below.
type Options struct {
	// Frames queued per client before the client is considered stuck.
	SendBufferSize int

	// Maximum message size allowed from peer.
	MaxMessageSize int64

	// Time allowed to write a message to the peer.
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration

	// Send pings to peer with this period. Must be less than PongWait.
	PingPeriod time.Duration

	// Browser origins allowed to connect. Empty allows any origin.
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = 256
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 64 * 1024
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	return o
}

// Handler receives the lifecycle of every connection. Handle is called for
// one connection's frames sequentially, in arrival order.
type Handler interface {
	Connect(ctx context.Context, connID, displayName string) string
	Handle(ctx context.Context, connID string, frame []byte)
	Disconnect(ctx context.Context, connID string)
}

// Client is one upgraded WebSocket connection
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub owns every live client and queues outbound frames for them
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	opts     Options
	upgrader websocket.Upgrader
	resolver identity.Resolver
	log      zerolog.Logger
}

// NewHub creates a hub. A nil resolver leaves every connection Anonymous.
func NewHub(opts Options, resolver identity.Resolver, log zerolog.Logger) *Hub {
	if resolver == nil {
		resolver = identity.NopResolver{}
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:  make(map[string]*Client),
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts.withDefaults(),
		resolver: resolver,
		log:      log.With().Str("module", "websocket").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return lo.Contains(h.opts.AllowedOrigins, origin)
}

// ServeWS upgrades the request and runs the connection until it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, handler Handler) {
	if h.ctx.Err() != nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.opts.SendBufferSize),
		done: make(chan struct{}),
	}
	if !h.register(client) {
		deadline := time.Now().Add(h.opts.WriteWait)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		_ = conn.Close()
		return
	}

	displayName, _ := h.resolver.ResolveDisplayName(r)

	// the write pump must be running before Connect queues the ack
	go client.writePump()
	handler.Connect(h.ctx, client.id, displayName)
	go client.readPump(handler)
}

// Send queues frame for connID without blocking. A client whose buffer is
// full is closed.
func (h *Hub) Send(connID string, frame []byte) error {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return broadcast.ErrUnknownRecipient
	}

	select {
	case <-client.done:
		return broadcast.ErrUnknownRecipient
	default:
	}

	select {
	case client.send <- frame:
		return nil
	default:
		h.log.Warn().Str("conn_id", connID).Msg("send buffer full, closing client")
		client.close()
		return broadcast.ErrRecipientBusy
	}
}

// Count returns the number of live clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client and waits for their disconnects to be
// handled, or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.cancel()
	clients := lo.Values(h.clients)
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// register adds client unless the hub is shutting down. Shutdown cancels
// under the same lock, so every client it waits for was counted first.
func (h *Hub) register(client *Client) bool {
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return false
	}
	h.wg.Add(1)
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Debug().Str("conn_id", client.id).Int("clients", total).Msg("client registered")
	return true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client.id)
	total := len(h.clients)
	h.mu.Unlock()
	h.wg.Done()

	h.log.Debug().Str("conn_id", client.id).Int("clients", total).Msg("client unregistered")
}

// readPump hands frames to the handler one at a time. When it returns the
// connection is gone and the handler is told so.
func (c *Client) readPump(handler Handler) {
	defer func() {
		c.close()
		c.conn.Close()
		handler.Disconnect(c.hub.ctx, c.id)
		c.hub.unregister(c)
	}()

	c.conn.SetReadLimit(c.hub.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
		return nil
	})

	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("conn_id", c.id).Msg("websocket closed unexpectedly")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handler.Handle(c.hub.ctx, c.id, frame)
	}
}

// writePump writes queued frames, one WebSocket message per frame, and
// keeps the peer alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			c.drain()
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// drain flushes frames that were queued before the client was closed
func (c *Client) drain() {
	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

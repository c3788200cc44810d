package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"github.com/wricardo/gameroom/game/protocol"
)

var errClosed = errors.New("connection closed")

// Client is one bot player connected over WebSocket
type Client struct {
	conn     *websocket.Conn
	playerID string
	inbox    chan protocol.Envelope
	writeMu  sync.Mutex
}

// Dial connects to wsURL, waits for the connected event and sets the bot's
// username
func Dial(ctx context.Context, wsURL, username string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		return nil, eris.Wrapf(err, "dial %s", wsURL)
	}

	c := &Client{
		conn:  conn,
		inbox: make(chan protocol.Envelope, 256),
	}
	go c.readLoop()

	data, err := c.Await(ctx, protocol.EventConnected)
	if err != nil {
		conn.Close()
		return nil, err
	}
	var connected protocol.Connected
	if err := json.Unmarshal(data, &connected); err != nil {
		conn.Close()
		return nil, eris.Wrap(err, "parse connected")
	}
	c.playerID = connected.PlayerID

	if err := c.Send(protocol.EventSetUsername, map[string]string{"username": username}); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := c.Await(ctx, protocol.EventUsernameSet); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.inbox)
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			continue
		}
		c.inbox <- env
	}
}

// PlayerID is the ID the server assigned to this bot
func (c *Client) PlayerID() string {
	return c.playerID
}

// Send writes one frame
func (c *Client) Send(event protocol.Event, data any) error {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return eris.Wrapf(err, "send %s", event)
	}
	return nil
}

// Await returns the payload of the next frame carrying event. Other frames
// are discarded. An error event from the server fails the wait.
func (c *Client) Await(ctx context.Context, event protocol.Event) (json.RawMessage, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "waiting for %s", event)
		case env, ok := <-c.inbox:
			if !ok {
				return nil, eris.Wrapf(errClosed, "waiting for %s", event)
			}
			if env.Event == event {
				return env.Data, nil
			}
			if env.Event == protocol.EventError {
				var e protocol.Error
				json.Unmarshal(env.Data, &e)
				return nil, fmt.Errorf("server rejected request: %s", e.Message)
			}
		}
	}
}

// Collect counts incoming frames by event until every count in want is
// reached or ctx ends. It returns what it saw either way.
func (c *Client) Collect(ctx context.Context, want map[protocol.Event]int) map[protocol.Event]int {
	got := make(map[protocol.Event]int, len(want))
	done := func() bool {
		for event, n := range want {
			if got[event] < n {
				return false
			}
		}
		return true
	}

	for !done() {
		select {
		case <-ctx.Done():
			return got
		case env, ok := <-c.inbox:
			if !ok {
				return got
			}
			got[env.Event]++
		}
	}
	return got
}

// Close ends the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

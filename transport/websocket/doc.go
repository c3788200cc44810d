// Package websocket provides the WebSocket transport for the game room server.
//
// The websocket package implements:
//   - Connection upgrade with an optional origin allow-list
//   - One read and one write goroutine per connection
//   - Non-blocking, buffered delivery of outbound frames
//   - Ping/pong keepalive and dead peer detection
//
// Architecture:
//
// A central Hub owns every client by connection ID. Each connection gets a
// fresh UUID when it is upgraded; the Hub resolves its display name through
// an identity.Resolver, calls Handler.Connect and then starts the pumps.
//
// Message Protocol:
//
// Every text message is one JSON frame of the form {"event": ..., "data": ...}.
// The hub does not look inside frames; the Handler decodes them.
//
// Connection Lifecycle:
//
// 1. Upgrade and register with the hub
// 2. Handler.Connect queues the connected ack
// 3. Each inbound frame is passed to Handler.Handle in arrival order
// 4. A read error, close frame, missed pong or full send buffer ends the read loop
// 5. Handler.Disconnect runs, then the client is unregistered
//
// Concurrency:
//
// Send is safe from any goroutine and never blocks: a frame is either queued
// on the client's buffered channel or the client is closed as too slow.
package websocket

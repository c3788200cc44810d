// Package service coordinates connections and rooms for the game room server.
//
// The service package implements:
//   - Connection lifecycle (connect, rename, disconnect)
//   - Room lifecycle (create, join, leave)
//   - Membership-checked relays for game actions and chat
//   - The event router that dispatches decoded frames
//
// Core Types:
//
// Lifecycle performs every multi-step change against the session and room
// registries and hands the resulting events to the broadcast dispatcher.
// Router decodes inbound frames, replies to rejected payloads and calls the
// matching Lifecycle operation.
//
// Architecture:
//
// The service layer sits between the transport (WebSocket hub) and the two
// registries. The transport calls Router.Connect when a connection opens,
// Router.Handle for each frame in arrival order and Router.Disconnect once
// the connection's read loop has ended.
//
// Usage:
//
//	conns := session.NewRegistry()
//	rooms := room.NewRegistry()
//	out := broadcast.NewDispatcher(hub, rooms, conns, logger)
//	lifecycle := service.NewLifecycle(conns, rooms, out, logger,
//		service.WithCapacityPolicy(gameCatalog))
//	router := service.NewRouter(lifecycle, logger)
//
// Concurrency:
//
// Handlers for different connections run in parallel. Sequences that touch
// a room run under a striped per-room guard, and the frames they produce are
// queued to recipients before the guard is released, so every member sees a
// room's events in the order they happened. Queueing never blocks.
//
// A connection that is already in a room leaves it before creating or
// joining another one, so a connection is always in at most one room.
package service

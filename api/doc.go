// Package api provides the HTTP surface of the game room server.
//
// The api package implements:
//   - Read-only inspection of live rooms and connection counts
//   - The game type catalog
//   - WebSocket upgrade handling
//   - Static file serving
//
// Endpoints:
//
// Service:
//   - GET /api/health - Liveness probe
//   - GET /api/stats - Connection, room and player counts
//
// Rooms:
//   - GET /api/rooms - List rooms (sort=created|players, order=asc|desc, limit, game_type)
//   - GET /api/rooms/{id} - Snapshot of one room including its game state
//
// Catalog:
//   - GET /api/games - List known game types
//   - GET /api/games/{type} - One game type descriptor
//
// Realtime:
//   - GET /ws - Upgrade to the WebSocket event protocol
//
// Rooms are created, joined and left only over the WebSocket protocol; the
// REST endpoints never mutate state.
//
// Error Handling:
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{
//	  "error": "room not found"
//	}
package api

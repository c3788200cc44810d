// Package mcp exposes a read-only Model Context Protocol view of the room server.
//
// The package implements:
//   - An MCP server for AI agent integration
//   - Tool definitions that proxy the REST API
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//   - list_rooms: List live rooms, optionally filtered by game type
//   - get_room: Members and shared game state of one room
//   - list_game_types: Game types from the catalog
//   - server_stats: Connection, room and player counts
//
// Players never act through MCP. Room membership and game actions stay on the
// WebSocket protocol.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// or one JSON-RPC message per HTTP POST
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp

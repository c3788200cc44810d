package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rotisserie/eris"
	"github.com/wricardo/gameroom/game/catalog"
	"github.com/wricardo/gameroom/game/room"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Game Room Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Game Room Server - MCP Interface

This is a read-only view of a live multiplayer room server. Players create,
join and leave rooms over WebSocket; these tools let you inspect what is
happening without taking part.

AVAILABLE TOOLS:
- list_rooms: List live rooms, optionally filtered by game type
- get_room: Members and shared game state of one room
- list_game_types: Game types in the catalog with their default capacity
- server_stats: Connection, room and player counts`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List live game rooms, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_type": map[string]interface{}{
					"type":        "string",
					"description": "Only list rooms of this game type (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of rooms to return (optional)",
				},
			},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get the members and game state of a room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID to inspect",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_game_types",
		Description: "List the game types in the catalog",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGameTypes)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get connection, room and player counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "failed to encode request")
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return eris.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameType, _ := args["game_type"].(string)
	limit, _ := args["limit"].(float64)

	query := url.Values{}
	if gameType != "" {
		query.Set("game_type", gameType)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(int(limit)))
	}
	path := "/api/rooms"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Count int            `json:"count"`
		Total int            `json:"total"`
		Rooms []room.Summary `json:"rooms"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRooms(response.Rooms, response.Total)), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, _ := arguments(request)["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	var snap room.Snapshot
	if err := c.apiCall(ctx, "GET", "/api/rooms/"+url.PathEscape(roomID), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoom(&snap)), nil
}

func (c *Client) handleListGameTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                  `json:"count"`
		Games []catalog.Descriptor `json:"games"`
	}
	if err := c.apiCall(ctx, "GET", "/api/games", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Game Types (%d):\n\n", response.Count)
	for _, g := range response.Games {
		fmt.Fprintf(&b, "- %s: %s (up to %d players)\n", g.GameType, g.Title, g.MaxPlayers)
		if g.Description != "" {
			fmt.Fprintf(&b, "  %s\n", g.Description)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats struct {
		Connections   int `json:"connections"`
		Rooms         int `json:"rooms"`
		Players       int `json:"players"`
		UptimeSeconds int `json:"uptime_seconds"`
	}
	if err := c.apiCall(ctx, "GET", "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Connections: %d\nRooms: %d\nPlayers in rooms: %d\nUptime: %s\n",
		stats.Connections, stats.Rooms, stats.Players,
		(time.Duration(stats.UptimeSeconds) * time.Second).String())
	return mcp.NewToolResultText(result), nil
}

func formatRooms(rooms []room.Summary, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Live Rooms (%d of %d):\n\n", len(rooms), total)
	for _, r := range rooms {
		fmt.Fprintf(&b, "- %s (%s, %d/%d players, created %s)\n",
			r.ID, r.GameType, r.PlayerCount, r.Capacity, r.CreatedAt.Format("15:04:05"))
	}
	return b.String()
}

func formatRoom(snap *room.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room %s\n", snap.RoomID)
	fmt.Fprintf(&b, "Game: %s\n", snap.GameType)
	fmt.Fprintf(&b, "Players: %d/%d\n", len(snap.Players), snap.Capacity)
	for i, m := range snap.Players {
		fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, m.Username, m.PlayerID)
	}

	state := "{}"
	if len(snap.GameState) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, snap.GameState, "", "  "); err == nil {
			state = pretty.String()
		} else {
			state = string(snap.GameState)
		}
	}
	fmt.Fprintf(&b, "Game state:\n%s\n", state)
	return b.String()
}

package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/gameroom/game/catalog"
	"github.com/wricardo/gameroom/game/room"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://localhost:8080/")
	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]string
	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", response["status"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall(context.Background(), "GET", "/api", nil, nil)
	if err == nil {
		t.Fatal("Expected error for HTTP 500 response")
	}

	if !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error' in error message, got: %v", err)
	}
}

func TestClient_apiCall_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "room not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall(context.Background(), "GET", "/api/rooms/nope", nil, nil)
	if err == nil || err.Error() != "room not found" {
		t.Errorf("Expected 'room not found', got: %v", err)
	}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content, got none")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestClient_handleListRooms(t *testing.T) {
	created := time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms" {
			t.Errorf("Expected GET /api/rooms, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("game_type"); got != "pong" {
			t.Errorf("Expected game_type=pong, got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("Expected limit=5, got %q", got)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"total": 3,
			"rooms": []room.Summary{
				{ID: "room-abc", GameType: "pong", Capacity: 2, PlayerCount: 1, CreatedAt: created},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "list_rooms",
			Arguments: map[string]interface{}{"game_type": "pong", "limit": float64(5)},
		},
	}

	result, err := client.handleListRooms(context.Background(), request)
	if err != nil {
		t.Fatalf("handleListRooms failed: %v", err)
	}

	text := textOf(t, result)
	for _, want := range []string{"1 of 3", "room-abc", "pong", "1/2 players", "10:30:00"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleListRooms_NoArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("Expected no query, got %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "total": 0, "rooms": []room.Summary{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListRooms(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleListRooms failed: %v", err)
	}

	if text := textOf(t, result); !strings.Contains(text, "0 of 0") {
		t.Errorf("Expected empty listing, got: %s", text)
	}
}

func TestClient_handleGetRoom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms/room-xyz" {
			t.Errorf("Expected GET /api/rooms/room-xyz, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(room.Snapshot{
			RoomID:    "room-xyz",
			GameType:  "snake",
			Capacity:  4,
			Players:   []room.Member{{PlayerID: "p1", Username: "alice"}, {PlayerID: "p2", Username: "bob"}},
			GameState: json.RawMessage(`{"score":3}`),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "get_room",
			Arguments: map[string]interface{}{"room_id": "room-xyz"},
		},
	}

	result, err := client.handleGetRoom(context.Background(), request)
	if err != nil {
		t.Fatalf("handleGetRoom failed: %v", err)
	}

	text := textOf(t, result)
	for _, want := range []string{"Room room-xyz", "Game: snake", "Players: 2/4", "alice (p1)", "bob (p2)", `"score": 3`} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleGetRoom_MissingID(t *testing.T) {
	client := NewClient("http://localhost:0")

	result, err := client.handleGetRoom(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleGetRoom returned error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error for missing room_id")
	}
}

func TestClient_handleGetRoom_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "room not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "get_room",
			Arguments: map[string]interface{}{"room_id": "gone"},
		},
	}

	result, err := client.handleGetRoom(context.Background(), request)
	if err != nil {
		t.Fatalf("handleGetRoom returned error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error for unknown room")
	}
	if text := textOf(t, result); !strings.Contains(text, "room not found") {
		t.Errorf("Expected 'room not found', got: %s", text)
	}
}

func TestClient_handleListGameTypes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 2,
			"games": []catalog.Descriptor{
				{GameType: "pong", Title: "Pong", Description: "Classic paddles", MaxPlayers: 2},
				{GameType: "snake", Title: "Snake", MaxPlayers: 4},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListGameTypes(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleListGameTypes failed: %v", err)
	}

	text := textOf(t, result)
	for _, want := range []string{"Game Types (2)", "pong: Pong (up to 2 players)", "Classic paddles", "snake: Snake (up to 4 players)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleServerStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats" {
			t.Errorf("Expected GET /api/stats, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]int{
			"connections":    7,
			"rooms":          2,
			"players":        5,
			"uptime_seconds": 90,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleServerStats(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleServerStats failed: %v", err)
	}

	text := textOf(t, result)
	for _, want := range []string{"Connections: 7", "Rooms: 2", "Players in rooms: 5", "Uptime: 1m30s"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestFormatRoom_EmptyState(t *testing.T) {
	text := formatRoom(&room.Snapshot{RoomID: "r1", GameType: "tetris", Capacity: 2})
	if !strings.Contains(text, "Players: 0/2") {
		t.Errorf("Expected empty player count, got: %s", text)
	}
	if !strings.Contains(text, "Game state:\n{}") {
		t.Errorf("Expected empty game state, got: %s", text)
	}
}

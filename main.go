// Command gameroom starts the multiplayer game room server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, the WebSocket endpoint, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, catalog directory, debug logging, and optional
// ngrok tunneling for easy external access during development. Tuning knobs
// come from the environment (see internal/config).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/gameroom/api"
	"github.com/wricardo/gameroom/game/broadcast"
	"github.com/wricardo/gameroom/game/catalog"
	"github.com/wricardo/gameroom/game/identity"
	"github.com/wricardo/gameroom/game/room"
	"github.com/wricardo/gameroom/game/service"
	"github.com/wricardo/gameroom/game/session"
	"github.com/wricardo/gameroom/internal/config"
	"github.com/wricardo/gameroom/transport/mcp"
	"github.com/wricardo/gameroom/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Game Room Server"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(envErr).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// newCommand builds the command tree. envErr is the result of loading .env,
// reported once the logger exists.
func newCommand(envErr error) *cli.Command {
	serve := func(ctx context.Context, cmd *cli.Command) error {
		a, err := newApp(cmd, envErr)
		if err != nil {
			return err
		}
		return a.runHTTPServer(ctx, cmd)
	}

	return &cli.Command{
		Name:    "gameroom",
		Usage:   "Real-time multiplayer game room coordinator",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "catalog-dir",
				Value:   "catalog",
				Usage:   "Directory containing game type descriptors",
				Sources: cli.EnvVars("CATALOG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  serve,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server, starting an internal HTTP server if needed",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(cmd, envErr)
					if err != nil {
						return err
					}
					return a.runStdioMCP(ctx, cmd)
				},
			},
		},
	}
}

// app holds the wired server components
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	conns  *session.Registry
	rooms  *room.Registry
	games  *catalog.Manager
	hub    *websocket.Hub
	router *service.Router
	api    *api.Server
}

// newApp loads configuration and wires registries, transport and API
func newApp(cmd *cli.Command, envErr error) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := config.NewLogger(cfg.LogLevel, cmd.Bool("debug"), os.Stderr)
	if envErr == nil {
		log.Debug().Msg("loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("error loading .env file")
	}

	return wire(cfg, cmd.String("catalog-dir"), log)
}

func wire(cfg config.Config, catalogDir string, log zerolog.Logger) (*app, error) {
	games, err := catalog.NewManager(catalogDir, cfg.DefaultMaxPlayers, log)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create catalog")
	}

	conns := session.NewRegistry()
	rooms := room.NewRegistry()

	hub := websocket.NewHub(websocket.Options{
		SendBufferSize: cfg.SendBufferSize,
		MaxMessageSize: cfg.MaxMessageSize,
		WriteWait:      cfg.WriteWait,
		PongWait:       cfg.PongWait,
		PingPeriod:     cfg.PingPeriod(),
		AllowedOrigins: cfg.Origins(),
	}, identity.NewResolver(cfg.JWTSecret, log), log)

	dispatcher := broadcast.NewDispatcher(hub, rooms, conns, log)
	lifecycle := service.NewLifecycle(conns, rooms, dispatcher, log,
		service.WithCapacityPolicy(games),
		service.WithChatLimit(cfg.ChatMaxLength),
	)
	router := service.NewRouter(lifecycle, log)

	return &app{
		cfg:    cfg,
		log:    log,
		conns:  conns,
		rooms:  rooms,
		games:  games,
		hub:    hub,
		router: router,
		api:    api.NewServer(rooms, conns, games, hub, router, log),
	}, nil
}

// routes mounts the API at root and the MCP endpoint at /mcp
func (a *app) routes(mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", a.api)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient.GetMCPServer()))
	return mainRouter
}

// mcpHandler answers one JSON-RPC message per POST
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// runHTTPServer serves until ctx is cancelled, then shuts the HTTP server
// and every WebSocket client down. If ngrok is enabled it also provisions a
// public tunnel.
func (a *app) runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	handler := a.routes(mcp.NewClient(fmt.Sprintf("http://%s", addr)))

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		a.log.Info().
			Str("addr", addr).
			Str("version", Version).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("websocket", fmt.Sprintf("ws://%s/ws", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- eris.Wrap(err, "HTTP server failed")
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runTunnel(ctx, handler, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"))
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		a.log.Error().Err(shutdownErr).Msg("HTTP server shutdown error")
	}
	if shutdownErr := a.hub.Shutdown(shutdownCtx); shutdownErr != nil {
		a.log.Error().Err(shutdownErr).Msg("WebSocket hub shutdown error")
	}

	wg.Wait()
	a.log.Info().Msg("server stopped")
	return err
}

// runTunnel serves handler through an ngrok tunnel until ctx is cancelled
func (a *app) runTunnel(ctx context.Context, handler http.Handler, authToken, domain string) {
	log := a.log.With().Str("module", "ngrok").Logger()

	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tunnelServer.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("url", tun.URL()).
		Str("websocket", tun.URL()+"/ws").
		Str("mcp", tun.URL()+"/mcp").
		Msg("ngrok tunnel established")

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on --host/--port; if there is none it starts an internal HTTP API bound to
// a random loopback port and targets that.
func (a *app) runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
	baseURL := externalURL

	if !apiAvailable(ctx, externalURL) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return eris.Wrap(err, "failed to get available port")
		}

		internalServer := &http.Server{Handler: a.api}
		go func() {
			if err := internalServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			internalServer.Shutdown(shutdownCtx)
			a.hub.Shutdown(shutdownCtx)
		}()

		baseURL = "http://" + listener.Addr().String()
		a.log.Info().Str("addr", listener.Addr().String()).Msg("started internal HTTP server for MCP stdio")
	} else {
		a.log.Info().Str("url", externalURL).Msg("using external API server for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return eris.Wrap(err, "MCP stdio server error")
	}
	return nil
}

// apiAvailable reports whether a healthy API answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

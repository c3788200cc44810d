// Command roombot drives bot players against a running game room server.
// Each room gets one creator and a set of joiners; every bot sends game
// actions and a chat line, and the run fails if any relay goes missing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gameroom/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "roombot",
		Usage: "Exercise a game room server with bot players",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "ws://localhost:8080/ws", Usage: "WebSocket endpoint"},
			&cli.StringFlag{Name: "game-type", Value: "pong", Usage: "Game type of the rooms to create"},
			&cli.IntFlag{Name: "rooms", Value: 4, Usage: "Number of rooms"},
			&cli.IntFlag{Name: "players", Value: 2, Usage: "Players per room"},
			&cli.IntFlag{Name: "actions", Value: 10, Usage: "Game actions each player sends"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "Time limit per room"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		},
		Action: run,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "roombot: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log := config.NewLogger("info", cmd.Bool("debug"), os.Stderr)

	opts := Options{
		URL:            cmd.String("url"),
		GameType:       cmd.String("game-type"),
		Rooms:          cmd.Int("rooms"),
		PlayersPerRoom: cmd.Int("players"),
		Actions:        cmd.Int("actions"),
		Timeout:        cmd.Duration("timeout"),
	}
	if opts.Rooms < 1 || opts.PlayersPerRoom < 1 || opts.Actions < 0 {
		return fmt.Errorf("rooms and players must be positive, actions non-negative")
	}

	report := Run(ctx, opts, log)
	for _, rr := range report.Rooms {
		ev := log.Info()
		if !rr.Complete() {
			ev = log.Error().AnErr("cause", rr.Err)
		}
		ev.Str("room_id", rr.RoomID).
			Int("players", rr.Players).
			Int("actions_sent", rr.ActionsSent).
			Int("actions_received", rr.ActionsReceived).
			Int("chats_received", rr.ChatsReceived).
			Msg("room finished")
	}

	failed := report.Failed()
	log.Info().Int("rooms", len(report.Rooms)).Int("failed", len(failed)).Dur("elapsed", report.Elapsed).Msg("run complete")
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d rooms incomplete", len(failed), len(report.Rooms))
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/wricardo/gameroom/game/protocol"
)

// Options control one bot run
type Options struct {
	URL            string
	GameType       string
	Rooms          int
	PlayersPerRoom int
	Actions        int
	Timeout        time.Duration
}

// RoomReport is the outcome of one room
type RoomReport struct {
	RoomID          string
	Players         int
	ActionsSent     int
	ActionsReceived int
	ChatsReceived   int
	Err             error
}

// Complete reports whether every relay arrived
func (r RoomReport) Complete() bool {
	return r.Err == nil &&
		r.ActionsReceived == (r.Players-1)*r.ActionsSent &&
		r.ChatsReceived == r.Players*r.Players
}

// Report aggregates a bot run
type Report struct {
	Rooms   []RoomReport
	Elapsed time.Duration
}

// Failed returns the rooms that did not complete
func (r Report) Failed() []RoomReport {
	return lo.Reject(r.Rooms, func(rr RoomReport, _ int) bool { return rr.Complete() })
}

// Run drives every room concurrently: one bot creates the room, the rest
// join, then each player sends its actions and one chat line while counting
// what the others relay.
func Run(ctx context.Context, opts Options, log zerolog.Logger) Report {
	start := time.Now()
	reports := make([]RoomReport, opts.Rooms)

	var wg sync.WaitGroup
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i] = runRoom(ctx, opts, i, log)
		}(i)
	}
	wg.Wait()

	return Report{Rooms: reports, Elapsed: time.Since(start)}
}

func runRoom(ctx context.Context, opts Options, index int, log zerolog.Logger) RoomReport {
	report := RoomReport{}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	clients := make([]*Client, 0, opts.PlayersPerRoom)
	defer func() {
		for _, c := range clients {
			c.Close()
		}
	}()

	for p := 0; p < opts.PlayersPerRoom; p++ {
		c, err := Dial(ctx, opts.URL, fmt.Sprintf("bot-%d-%d", index, p))
		if err != nil {
			report.Err = err
			return report
		}
		clients = append(clients, c)

		if p == 0 {
			report.RoomID, err = createRoom(ctx, c, opts.GameType, opts.PlayersPerRoom)
		} else {
			err = joinRoom(ctx, c, report.RoomID)
		}
		if err != nil {
			report.Err = err
			return report
		}
		report.Players++
	}

	log.Debug().Str("room_id", report.RoomID).Int("players", report.Players).Msg("room filled")

	want := map[protocol.Event]int{
		protocol.EventGameAction:  (report.Players - 1) * opts.Actions,
		protocol.EventChatMessage: report.Players,
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			got := c.Collect(ctx, want)

			mu.Lock()
			defer mu.Unlock()
			report.ActionsReceived += got[protocol.EventGameAction]
			report.ChatsReceived += got[protocol.EventChatMessage]
		}(c)
	}

	for _, c := range clients {
		for a := 0; a < opts.Actions; a++ {
			err := c.Send(protocol.EventGameAction, map[string]any{
				"room_id": report.RoomID,
				"action":  "move",
				"data":    json.RawMessage(fmt.Sprintf(`{"seq":%d}`, a)),
			})
			if err != nil {
				report.Err = err
				break
			}
			report.ActionsSent++
		}
		if err := c.Send(protocol.EventChatMessage, map[string]string{
			"room_id": report.RoomID,
			"message": fmt.Sprintf("hello from %s", c.PlayerID()),
		}); err != nil && report.Err == nil {
			report.Err = err
		}
	}
	wg.Wait()

	if ctx.Err() != nil && report.Err == nil && !report.Complete() {
		report.Err = ctx.Err()
	}
	return report
}

func createRoom(ctx context.Context, c *Client, gameType string, capacity int) (string, error) {
	if err := c.Send(protocol.EventCreateRoom, map[string]any{"game_type": gameType, "max_players": capacity}); err != nil {
		return "", err
	}
	data, err := c.Await(ctx, protocol.EventRoomCreated)
	if err != nil {
		return "", err
	}
	var created protocol.RoomCreated
	if err := json.Unmarshal(data, &created); err != nil {
		return "", err
	}
	return created.RoomID, nil
}

func joinRoom(ctx context.Context, c *Client, roomID string) error {
	if err := c.Send(protocol.EventJoinRoom, map[string]string{"room_id": roomID}); err != nil {
		return err
	}
	_, err := c.Await(ctx, protocol.EventRoomJoined)
	return err
}

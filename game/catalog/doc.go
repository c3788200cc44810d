// Package catalog provides the game type catalog of the game room server.
//
// The catalog package handles:
//   - Loading game type descriptors from JSON files
//   - Descriptor validation
//   - Default room capacity per game type
//   - Descriptor discovery and listing
//
// Descriptor Format:
//
// Each file in the catalog directory is named after its game type and holds
// one descriptor:
//
//	{
//	  "game_type": "snake",
//	  "title": "Snake",
//	  "description": "Classic Snake game.",
//	  "instructions": "Use arrow keys to control the snake.",
//	  "max_players": 4
//	}
//
// The catalog is informational. Rooms may be created for any game type; a
// type without a descriptor gets the fallback capacity passed to NewManager.
//
// Usage:
//
//	games, err := catalog.NewManager("catalog", 4, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	capacity := games.DefaultCapacity("pong")
package catalog

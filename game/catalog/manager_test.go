package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, dir, name string, d any) {
	t.Helper()
	data, err := json.Marshal(d)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func validDescriptor(gameType string, maxPlayers int) Descriptor {
	return Descriptor{
		GameType:    gameType,
		Title:       "Test " + gameType,
		Description: "A test game",
		MaxPlayers:  maxPlayers,
	}
}

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir, 4, zerolog.Nop())
	require.NoError(t, err)
	return m, dir
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"), 4, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("non positive fallback", func(t *testing.T) {
		_, err := NewManager(t.TempDir(), 0, zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestManager_Get(t *testing.T) {
	m, dir := newTestManager(t)
	writeDescriptor(t, dir, "pong.json", validDescriptor("pong", 2))
	writeDescriptor(t, dir, "liar.json", validDescriptor("snake", 2))

	tests := []struct {
		name     string
		gameType string
		wantErr  error
	}{
		{"known", "pong", nil},
		{"unknown", "chess", ErrGameTypeNotFound},
		{"path traversal", "../pong", ErrGameTypeNotFound},
		{"file and type disagree", "liar", ErrInvalidGameType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := m.Get(tt.gameType)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.gameType, d.GameType)
		})
	}
}

func TestManager_GetCaches(t *testing.T) {
	m, dir := newTestManager(t)
	writeDescriptor(t, dir, "pong.json", validDescriptor("pong", 2))

	first, err := m.Get("pong")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "pong.json")))
	second, err := m.Get("pong")
	require.NoError(t, err)
	assert.Same(t, first, second)

	m.RefreshCache()
	_, err = m.Get("pong")
	assert.ErrorIs(t, err, ErrGameTypeNotFound)
}

func TestManager_ListGameTypes(t *testing.T) {
	m, dir := newTestManager(t)
	writeDescriptor(t, dir, "tetris.json", validDescriptor("tetris", 2))
	writeDescriptor(t, dir, "snake.json", validDescriptor("snake", 4))
	writeDescriptor(t, dir, "broken.json", map[string]any{"game_type": "broken"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	types, err := m.ListGameTypes()
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "snake", types[0].GameType)
	assert.Equal(t, "tetris", types[1].GameType)
}

func TestManager_DefaultCapacity(t *testing.T) {
	m, dir := newTestManager(t)
	writeDescriptor(t, dir, "fpsgame.json", validDescriptor("fpsgame", 8))

	assert.Equal(t, 8, m.DefaultCapacity("fpsgame"))
	assert.Equal(t, 4, m.DefaultCapacity("unlisted"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Descriptor)
		wantErr bool
	}{
		{"valid", func(d *Descriptor) {}, false},
		{"missing game type", func(d *Descriptor) { d.GameType = "" }, true},
		{"uppercase game type", func(d *Descriptor) { d.GameType = "Snake" }, true},
		{"game type with slash", func(d *Descriptor) { d.GameType = "a/b" }, true},
		{"missing title", func(d *Descriptor) { d.Title = "" }, true},
		{"zero max players", func(d *Descriptor) { d.MaxPlayers = 0 }, true},
		{"too many players", func(d *Descriptor) { d.MaxPlayers = 65 }, true},
		{"empty description allowed", func(d *Descriptor) { d.Description = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDescriptor("snake", 4)
			tt.mutate(&d)
			err := Validate(&d)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidGameType)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestShippedCatalog(t *testing.T) {
	m, err := NewManager(filepath.Join("..", "..", "catalog"), 4, zerolog.Nop())
	require.NoError(t, err)

	types, err := m.ListGameTypes()
	require.NoError(t, err)

	var names []string
	for _, d := range types {
		names = append(names, d.GameType)
	}
	assert.Equal(t, []string{"flappybird", "fpsgame", "platformer", "pong", "snake", "tetris"}, names)
}

func TestManager_ConcurrentGet(t *testing.T) {
	m, dir := newTestManager(t)
	writeDescriptor(t, dir, "snake.json", validDescriptor("snake", 4))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := m.Get("snake")
			if assert.NoError(t, err) {
				assert.Equal(t, 4, d.MaxPlayers)
			}
		}()
	}
	wg.Wait()
}

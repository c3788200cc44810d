package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

var (
	ErrGameTypeNotFound = errors.New("game type not found")
	ErrInvalidGameType  = errors.New("invalid game type descriptor")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// Descriptor describes a game type clients can create rooms for
type Descriptor struct {
	GameType     string `json:"game_type" validate:"required,slug"`
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	Instructions string `json:"instructions,omitempty"`
	MaxPlayers   int    `json:"max_players" validate:"min=1,max=64"`
}

// Manager loads game type descriptors from a directory and caches them.
// Game types it does not know about are still playable; they simply get
// the fallback capacity.
type Manager struct {
	dir      string
	fallback int
	types    map[string]*Descriptor
	mu       sync.RWMutex
	log      zerolog.Logger
}

// NewManager creates a catalog reading *.json descriptors from dir
func NewManager(dir string, fallback int, log zerolog.Logger) (*Manager, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, eris.Errorf("catalog directory does not exist: %s", dir)
	}
	if fallback < 1 {
		return nil, eris.Errorf("fallback capacity must be positive, got %d", fallback)
	}

	return &Manager{
		dir:      dir,
		fallback: fallback,
		types:    make(map[string]*Descriptor),
		log:      log.With().Str("module", "catalog").Logger(),
	}, nil
}

// Get returns the descriptor for gameType
func (m *Manager) Get(gameType string) (*Descriptor, error) {
	if !slugPattern.MatchString(gameType) {
		return nil, ErrGameTypeNotFound
	}

	m.mu.RLock()
	if d, exists := m.types[gameType]; exists {
		m.mu.RUnlock()
		return d, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if d, exists := m.types[gameType]; exists {
		return d, nil
	}

	data, err := os.ReadFile(filepath.Join(m.dir, gameType+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrGameTypeNotFound
		}
		return nil, eris.Wrapf(err, "failed to read descriptor %s", gameType)
	}

	d, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if d.GameType != gameType {
		return nil, eris.Wrapf(ErrInvalidGameType, "file %s.json declares game type %q", gameType, d.GameType)
	}

	m.types[gameType] = d
	return d, nil
}

// ListGameTypes returns every valid descriptor in the directory, sorted by
// game type. Invalid files are skipped.
func (m *Manager) ListGameTypes() ([]*Descriptor, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read catalog directory")
	}

	var result []*Descriptor
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		d, err := m.Get(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			m.log.Warn().Str("file", entry.Name()).Err(err).Msg("skipping invalid descriptor")
			continue
		}
		result = append(result, d)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].GameType < result[j].GameType
	})
	return result, nil
}

// DefaultCapacity returns the capacity for rooms of gameType created without
// an explicit max_players
func (m *Manager) DefaultCapacity(gameType string) int {
	d, err := m.Get(gameType)
	if err != nil {
		return m.fallback
	}
	return d.MaxPlayers
}

// RefreshCache drops every cached descriptor so the next read hits disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types = make(map[string]*Descriptor)
}

// Parse decodes and validates one descriptor
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, eris.Wrap(err, "failed to parse descriptor")
	}
	if err := Validate(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks a descriptor's fields
func Validate(d *Descriptor) error {
	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			problems := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				problems = append(problems, fe.Field()+" failed "+fe.Tag())
			}
			return eris.Wrap(ErrInvalidGameType, strings.Join(problems, ", "))
		}
		return eris.Wrap(ErrInvalidGameType, err.Error())
	}
	return nil
}

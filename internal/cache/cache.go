package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/jadwal-waybar/internal/api"
)

const (
	cacheDirName  = "jadwal-waybar"
	cacheFileName = "jadwal.json"
)

var (
	// ErrNotExist is returned by Read when there is no cache file.
	ErrNotExist = errors.New("cache file does not exist")
	// ErrCorrupt is returned by Read when the cache file cannot be parsed.
	ErrCorrupt = errors.New("cache file is corrupt")
)

// Kind tags what a cache file holds.
type Kind string

const (
	// KindSchedule is a month of prayer times for one city.
	KindSchedule Kind = "schedule"
	// KindCities is the name->index mapping written when a city name
	// matched more than one city.
	KindCities Kind = "cities"
)

// Entry is the on-disk envelope. Exactly one of Schedule or Cities is set,
// according to Kind.
type Entry struct {
	Kind     Kind            `json:"kind"`
	City     string          `json:"city"`
	Year     int             `json:"year,omitempty"`
	Month    time.Month      `json:"month,omitempty"`
	Schedule json.RawMessage `json:"schedule,omitempty"`
	Cities   map[string]int  `json:"cities,omitempty"`
}

// MonthlySchedule decodes the cached schedule payload.
func (e *Entry) MonthlySchedule() (*api.MonthlySchedule, error) {
	if e.Kind != KindSchedule {
		return nil, fmt.Errorf("cache holds %q, not a schedule", e.Kind)
	}
	return api.DecodeMonthlySchedule(e.Schedule)
}

// Cache is a single JSON file holding either a month of schedule data or a
// city disambiguation mapping.
type Cache struct {
	path string
}

// DefaultPath returns $XDG_CACHE_HOME/jadwal-waybar/jadwal.json,
// falling back to ~/.cache/.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, cacheDirName, cacheFileName), nil
}

// New creates a Cache backed by the given file.
// If path is empty, it defaults to DefaultPath. The parent directory is created.
func New(path string) (*Cache, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{path: path}, nil
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Exists reports whether the cache file is present.
func (c *Cache) Exists() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// IsFresh reports whether the cache file exists and was last modified in the
// same calendar month as now. The day of month does not matter.
func (c *Cache) IsFresh(now time.Time) bool {
	fi, err := os.Stat(c.path)
	if err != nil {
		return false
	}
	mod := fi.ModTime().In(now.Location())
	return mod.Year() == now.Year() && mod.Month() == now.Month()
}

// Read parses the cache file.
func (c *Cache) Read() (*Entry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, c.path, err)
	}

	switch entry.Kind {
	case KindSchedule:
		if len(entry.Schedule) == 0 {
			return nil, fmt.Errorf("%w: %s: schedule entry without data", ErrCorrupt, c.path)
		}
	case KindCities:
	default:
		return nil, fmt.Errorf("%w: %s: unknown kind %q", ErrCorrupt, c.path, entry.Kind)
	}

	return &entry, nil
}

// WriteSchedule replaces the cache with a month of schedule data.
func (c *Cache) WriteSchedule(city string, year int, month time.Month, raw json.RawMessage) error {
	return c.write(Entry{
		Kind:     KindSchedule,
		City:     city,
		Year:     year,
		Month:    month,
		Schedule: raw,
	})
}

// WriteCities replaces the cache with a name->index mapping of the matches.
func (c *Cache) WriteCities(city string, cities []api.City) error {
	mapping := make(map[string]int, len(cities))
	for i, ct := range cities {
		mapping[ct.Name] = i
	}
	return c.write(Entry{
		Kind:   KindCities,
		City:   city,
		Cities: mapping,
	})
}

// Remove deletes the cache file. A missing file is not an error.
func (c *Cache) Remove() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// write marshals the entry and swaps it in with a rename, so a concurrent
// reader sees either the old or the new file.
func (c *Cache) write(entry Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".jadwal-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}

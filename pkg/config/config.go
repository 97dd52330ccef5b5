// Package config persists host preferences as a TOML file.
//
// Preferences are advisory: the engine renders correctly without them, and a
// missing or malformed file degrades to defaults. Hosts own the lifecycle,
// loading at startup and saving on change.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/gitscape/gitscape/pkg/errors"
)

// Prefs is the full preference document.
type Prefs struct {
	// Theme selects the built-in palette: "dark" or "light".
	Theme string `toml:"theme"`

	// StyleVars overrides individual theme colors by style variable name.
	// Malformed values are ignored at apply time, not here.
	StyleVars map[string]string `toml:"style_vars"`

	// Avatars enables fetching author avatar images. Off by default: it is
	// the only preference that causes network traffic.
	Avatars bool `toml:"avatars"`

	Geometry Geometry `toml:"geometry"`

	// Repos holds per-repository settings keyed by repository path.
	Repos map[string]*RepoPrefs `toml:"repos"`
}

// Geometry overrides the graph pixel configuration. Zero values mean "use
// the default".
type Geometry struct {
	LaneWidth float64 `toml:"lane_width"`
	RowHeight float64 `toml:"row_height"`
}

// RepoPrefs is remembered per repository.
type RepoPrefs struct {
	HiddenBranches []string `toml:"hidden_branches"`
	AllBranches    bool     `toml:"all_branches"`
	ColumnWidth    float64  `toml:"column_width"`
}

// Default returns an empty preference document ready to mutate.
func Default() *Prefs {
	return &Prefs{
		Theme:     "dark",
		StyleVars: map[string]string{},
		Repos:     map[string]*RepoPrefs{},
	}
}

// Repo returns the preferences for a repository path, creating them on first
// access.
func (p *Prefs) Repo(path string) *RepoPrefs {
	if p.Repos == nil {
		p.Repos = map[string]*RepoPrefs{}
	}
	rp, ok := p.Repos[path]
	if !ok {
		rp = &RepoPrefs{}
		p.Repos[path] = rp
	}
	return rp
}

// Store reads and writes the preference file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store at path. An empty path defaults to
// ~/.config/gitscape/prefs.toml.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolving home dir")
		}
		path = filepath.Join(home, ".config", "gitscape", "prefs.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "creating config dir")
	}
	return &Store{path: path}, nil
}

// Path returns the preference file location.
func (s *Store) Path() string { return s.path }

// Load reads the preference file. A missing file yields defaults with no
// error; a malformed file yields defaults and an INVALID_CONFIG error so the
// host can warn without losing its session.
func (s *Store) Load() (*Prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading %s", s.path)
	}

	p := Default()
	if err := toml.Unmarshal(data, p); err != nil {
		return Default(), errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing %s", s.path)
	}
	return p, nil
}

// Save writes the preference file atomically (write-then-rename).
func (s *Store) Save(p *Prefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "prefs-*.toml")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "creating temp file")
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(p); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "encoding prefs")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "closing temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "replacing %s", s.path)
	}
	return nil
}

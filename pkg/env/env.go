package env

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
)

// ErrNotFound is returned by Load when the environment file does not exist
var ErrNotFound = errors.New("environment file not found")

var (
	bracedRef = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareRef   = regexp.MustCompile(`\$([A-Z_]+)`)
)

// Store holds the variables read from .env files. Loaded values are also
// exported to the process environment.
type Store struct {
	mu     sync.RWMutex
	vars   map[string]string
	loaded bool
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{vars: make(map[string]string)}
}

var defaultStore = NewStore()

// Default returns the process-wide store used by the package functions
func Default() *Store {
	return defaultStore
}

// Load reads the file at path into the store
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to open environment file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return s.Parse(f)
}

// Parse reads KEY=VALUE lines from r
func (s *Store) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		value = s.interpolate(unquote(strings.TrimSpace(value)))
		s.Set(name, value)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read environment file: %w", err)
	}

	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}

// interpolate expands the first ${VAR} reference from previously loaded variables,
// then $VAR references from the store or the process environment. Unknown
// references are left as written.
func (s *Store) interpolate(value string) string {
	if !strings.Contains(value, "$") {
		return value
	}

	if loc := bracedRef.FindStringSubmatchIndex(value); loc != nil {
		s.mu.RLock()
		v, ok := s.vars[value[loc[2]:loc[3]]]
		s.mu.RUnlock()
		if ok {
			value = value[:loc[0]] + v + value[loc[1]:]
		}
	}

	return bareRef.ReplaceAllStringFunc(value, func(ref string) string {
		if v, ok := s.Lookup(ref[1:]); ok {
			return v
		}
		return ref
	})
}

// Lookup returns the value of key from the store, then the process environment
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.RLock()
	v, ok := s.vars[key]
	s.mu.RUnlock()
	if ok {
		return v, true
	}
	return os.LookupEnv(key)
}

// Get returns the value of key or def when it is not set anywhere
func (s *Store) Get(key, def string) string {
	if v, ok := s.Lookup(key); ok {
		return v
	}
	return def
}

// Set records key in the store and exports it to the process environment
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	s.vars[key] = value
	s.mu.Unlock()
	_ = os.Setenv(key, value)
}

// Has reports whether key is set in the store or the process environment
func (s *Store) Has(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// All returns a copy of the loaded variables
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Clear forgets the loaded variables. The process environment is left untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	s.vars = make(map[string]string)
	s.loaded = false
	s.mu.Unlock()
}

// IsLoaded reports whether a file has been loaded since the last Clear
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Environment returns the application environment named by APP_ENV
func (s *Store) Environment() Environment {
	e, err := EnvironmentString(s.Get("APP_ENV", EnvironmentProduction.String()))
	if err != nil {
		return EnvironmentProduction
	}
	return e
}

func Load(path string) error           { return defaultStore.Load(path) }
func Get(key, def string) string       { return defaultStore.Get(key, def) }
func Lookup(key string) (string, bool) { return defaultStore.Lookup(key) }
func Set(key, value string)            { defaultStore.Set(key, value) }
func Has(key string) bool              { return defaultStore.Has(key) }
func All() map[string]string           { return defaultStore.All() }
func Clear()                           { defaultStore.Clear() }
func IsLoaded() bool                   { return defaultStore.IsLoaded() }
func Current() Environment             { return defaultStore.Environment() }
func IsLocal() bool                    { return Current() == EnvironmentLocal }
func IsProduction() bool               { return Current() == EnvironmentProduction }
func IsTesting() bool                  { return Current() == EnvironmentTesting }

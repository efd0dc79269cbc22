package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Value sources reported by Source and Attributes
const (
	SourceDefault     = "default"
	SourceFile        = "file"
	SourceEnvironment = "environment"
	SourceCache       = "cache"
	SourceRuntime     = "runtime"
)

var fileExtensions = []string{".yml", ".yaml"}

// Repository holds configuration items keyed by file name. Items are
// addressed with dotted keys, so "database.host" is the "host" entry of
// database.yml.
type Repository struct {
	mu        sync.RWMutex
	items     map[string]interface{}
	paths     []string
	loaded    map[string]bool
	sources   map[string]string
	cachePath string
}

// New returns an empty repository reading files from paths
func New(paths ...string) *Repository {
	r := &Repository{
		items:   make(map[string]interface{}),
		loaded:  make(map[string]bool),
		sources: make(map[string]string),
	}
	r.SetPaths(paths...)
	return r
}

// Global singleton repository
var (
	globalRepository *Repository
	repositoryMu     sync.RWMutex
)

// Default returns the process-wide repository, creating an empty one if necessary
func Default() *Repository {
	repositoryMu.RLock()
	if globalRepository != nil {
		repositoryMu.RUnlock()
		return globalRepository
	}
	repositoryMu.RUnlock()

	repositoryMu.Lock()
	defer repositoryMu.Unlock()
	if globalRepository == nil {
		globalRepository = New()
	}
	return globalRepository
}

// SetDefault replaces the process-wide repository
func SetDefault(r *Repository) {
	repositoryMu.Lock()
	globalRepository = r
	repositoryMu.Unlock()
}

// SetPaths replaces the directories searched for configuration files.
// Paths that are not directories are ignored.
func (r *Repository) SetPaths(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.paths = r.paths[:0]
	seen := make(map[string]bool)
	for _, p := range paths {
		p = strings.TrimRight(p, `/\`)
		if p == "" || seen[p] {
			continue
		}
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			continue
		}
		seen[p] = true
		r.paths = append(r.paths, p)
	}
}

// Paths returns the directories searched for configuration files
func (r *Repository) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.paths...)
}

// UseCache makes Load read the merged configuration from the JSON file at
// path when it exists
func (r *Repository) UseCache(path string) {
	r.mu.Lock()
	r.cachePath = path
	r.mu.Unlock()
}

// Load reads every configuration file in the configured paths. Files in
// later paths replace the keys of earlier ones.
func (r *Repository) Load() error {
	r.mu.RLock()
	cachePath := r.cachePath
	paths := append([]string(nil), r.paths...)
	r.mu.RUnlock()

	if cachePath != "" {
		if _, err := os.Stat(cachePath); err == nil {
			return r.LoadCache(cachePath)
		}
	}

	for _, dir := range paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read config directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			ext := filepath.Ext(entry.Name())
			if entry.IsDir() || !isConfigExtension(ext) {
				continue
			}
			key := strings.TrimSuffix(entry.Name(), ext)
			if err := r.loadFile(key, filepath.Join(dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func isConfigExtension(ext string) bool {
	for _, e := range fileExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (r *Repository) loadFile(key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	sources := make(map[string]string)
	value := expandTree(key, normalize(raw), sources)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = value
	r.loaded[key] = true
	for k, src := range sources {
		r.sources[k] = src
	}
	return nil
}

// loadLazily loads the file backing a top-level key on first access
func (r *Repository) loadLazily(key string) {
	r.mu.RLock()
	_, present := r.items[key]
	done := r.loaded[key]
	paths := append([]string(nil), r.paths...)
	r.mu.RUnlock()
	if present || done {
		return
	}

	for _, dir := range paths {
		for _, ext := range fileExtensions {
			path := filepath.Join(dir, key+ext)
			if _, err := os.Stat(path); err == nil {
				_ = r.loadFile(key, path)
				return
			}
		}
	}

	r.mu.Lock()
	r.loaded[key] = true
	r.mu.Unlock()
}

// Get returns the value at a dotted key, or def when it is not set
func (r *Repository) Get(key string, def interface{}) interface{} {
	top, _, _ := strings.Cut(key, ".")
	r.loadLazily(top)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var current interface{} = r.items
	for _, segment := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return def
		}
		current, ok = m[segment]
		if !ok {
			return def
		}
	}
	if current == nil {
		return def
	}
	return current
}

// Has reports whether key holds a non-nil value
func (r *Repository) Has(key string) bool {
	return r.Get(key, nil) != nil
}

// Set stores value at a dotted key, creating intermediate maps as needed
func (r *Repository) Set(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	segments := strings.Split(key, ".")
	current := r.items
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = normalize(value)
	r.loaded[segments[0]] = true
	r.sources[key] = SourceRuntime
}

// SetMany stores every key of values
func (r *Repository) SetMany(values map[string]interface{}) {
	for k, v := range values {
		r.Set(k, v)
	}
}

// All returns a deep copy of every item
func (r *Repository) All() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return deepCopy(r.items).(map[string]interface{})
}

// Clear removes every item
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]interface{})
	r.loaded = make(map[string]bool)
	r.sources = make(map[string]string)
}

// Source reports where the value of a dotted key came from
func (r *Repository) Source(key string) string {
	if !r.Has(key) {
		return SourceDefault
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for k := key; k != ""; {
		if s, ok := r.sources[k]; ok {
			return s
		}
		i := strings.LastIndex(k, ".")
		if i < 0 {
			break
		}
		k = k[:i]
	}
	return SourceFile
}

// String returns the value at key as a string
func (r *Repository) String(key, def string) string {
	switch v := r.Get(key, nil).(type) {
	case nil:
		return def
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the value at key as an int
func (r *Repository) Int(key string, def int) int {
	switch v := r.Get(key, nil).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

// Bool returns the value at key as a bool
func (r *Repository) Bool(key string, def bool) bool {
	switch v := r.Get(key, nil).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	case int:
		return v != 0
	}
	return def
}

// Duration returns the value at key as a duration. Plain numbers are seconds.
func (r *Repository) Duration(key string, def time.Duration) time.Duration {
	switch v := r.Get(key, nil).(type) {
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return def
}

// Strings returns the value at key as a string slice. Comma separated
// strings are split.
func (r *Repository) Strings(key string) []string {
	switch v := r.Get(key, nil).(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return splitAndTrim(v)
	}
	return nil
}

// Decode unmarshals the value at key into out through YAML
func (r *Repository) Decode(key string, out interface{}) error {
	value := r.Get(key, nil)
	if value == nil {
		return nil
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// WriteCache writes the merged configuration to path as JSON
func (r *Repository) WriteCache(path string) error {
	data, err := json.MarshalIndent(r.All(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadCache replaces every item with the contents of a cache file
func (r *Repository) LoadCache(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config cache %s: %w", path, err)
	}
	var items map[string]interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to parse config cache %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
	r.loaded = make(map[string]bool)
	r.sources = make(map[string]string)
	for k := range items {
		r.loaded[k] = true
		r.sources[k] = SourceCache
	}
	return nil
}

// ClearCache removes the cache file at path. A missing file is not an error.
func ClearCache(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Keys returns the sorted top-level keys
func (r *Repository) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalize converts YAML and JSON maps into map[string]interface{}
func normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = normalize(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

func deepCopy(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = deepCopy(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

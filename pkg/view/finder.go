package view

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// HintDelimiter separates a namespace from a view name, as in "mail::welcome"
const HintDelimiter = "::"

var (
	// ErrViewNotFound is returned when no file matches a view name
	ErrViewNotFound = errors.New("view not found")
	// ErrInvalidName is returned for malformed namespaced view names
	ErrInvalidName = errors.New("invalid view name")
)

// Source is a view file located by a Finder
type Source struct {
	FS   fs.FS
	Root string
	Path string

	location string
}

// Key identifies the source across locations that may share relative paths
func (s Source) Key() string { return s.location + ":" + s.Path }

func (s Source) String() string { return s.Path }

type location struct {
	fsys fs.FS
	dir  string
	id   string
}

// Finder resolves dotted view names to files inside one or more fs.FS
// locations
type Finder struct {
	mu         sync.RWMutex
	locations  []location
	hints      map[string][]location
	extensions []string
	views      map[string]Source
	seq        int
}

// NewFinder returns a finder searching dirs of fsys with extensions, in order
func NewFinder(fsys fs.FS, dirs []string, extensions []string) *Finder {
	f := &Finder{
		hints: make(map[string][]location),
		views: make(map[string]Source),
	}
	for _, dir := range dirs {
		f.AddLocation(fsys, dir)
	}
	for _, ext := range extensions {
		f.AddExtension(ext)
	}
	return f
}

func (f *Finder) newLocation(fsys fs.FS, dir string) location {
	f.seq++
	dir = strings.Trim(path.Clean("/"+dir), "/")
	if dir == "" {
		dir = "."
	}
	return location{fsys: fsys, dir: dir, id: fmt.Sprintf("%d", f.seq)}
}

// Find returns the source for name, searching namespaced locations for
// "ns::name" and the default locations otherwise
func (f *Finder) Find(name string) (Source, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Source{}, err
	}

	f.mu.RLock()
	src, ok := f.views[name]
	f.mu.RUnlock()
	if ok {
		return src, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var locations []location
	base := name
	if ns, rest, found := strings.Cut(name, HintDelimiter); found {
		hinted, ok := f.hints[ns]
		if !ok {
			return Source{}, fmt.Errorf("%w: no hint path defined for [%s]", ErrViewNotFound, ns)
		}
		locations, base = hinted, rest
	} else {
		locations = f.locations
	}

	src, err = f.findIn(base, locations)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s", err, name)
	}
	f.views[name] = src
	return src, nil
}

func (f *Finder) findIn(name string, locations []location) (Source, error) {
	file := strings.ReplaceAll(name, ".", "/")
	for _, loc := range locations {
		for _, ext := range f.extensions {
			p := path.Join(loc.dir, file+"."+ext)
			info, err := fs.Stat(loc.fsys, p)
			if err != nil || info.IsDir() {
				continue
			}
			return Source{FS: loc.fsys, Root: loc.dir, Path: p, location: loc.id}, nil
		}
	}
	return Source{}, ErrViewNotFound
}

// normalizeName accepts "errors/404" as well as "errors.404"
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if !strings.Contains(name, HintDelimiter) {
		return strings.ReplaceAll(name, "/", "."), nil
	}

	parts := strings.Split(name, HintDelimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	return parts[0] + HintDelimiter + strings.ReplaceAll(parts[1], "/", "."), nil
}

// AddLocation appends a directory of fsys to the default search path
func (f *Finder) AddLocation(fsys fs.FS, dir string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations = append(f.locations, f.newLocation(fsys, dir))
	f.views = make(map[string]Source)
}

// PrependLocation puts a directory of fsys first in the default search path
func (f *Finder) PrependLocation(fsys fs.FS, dir string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations = append([]location{f.newLocation(fsys, dir)}, f.locations...)
	f.views = make(map[string]Source)
}

// AddNamespace appends directories to the hint paths of ns
func (f *Finder) AddNamespace(ns string, fsys fs.FS, dirs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, dir := range dirs {
		f.hints[ns] = append(f.hints[ns], f.newLocation(fsys, dir))
	}
	f.views = make(map[string]Source)
}

// ReplaceNamespace sets the hint paths of ns to dirs
func (f *Finder) ReplaceNamespace(ns string, fsys fs.FS, dirs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hinted := make([]location, 0, len(dirs))
	for _, dir := range dirs {
		hinted = append(hinted, f.newLocation(fsys, dir))
	}
	f.hints[ns] = hinted
	f.views = make(map[string]Source)
}

// HasNamespace reports whether ns has hint paths
func (f *Finder) HasNamespace(ns string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.hints[ns]
	return ok
}

// AddExtension registers ext for lookups. Extensions are tried in the
// order they were added.
func (f *Finder) AddExtension(ext string) {
	ext = strings.TrimPrefix(ext, ".")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.extensions {
		if e == ext {
			return
		}
	}
	f.extensions = append(f.extensions, ext)
	f.views = make(map[string]Source)
}

// Extensions returns the registered extensions in lookup order
func (f *Finder) Extensions() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.extensions...)
}

// Flush forgets resolved names
func (f *Finder) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = make(map[string]Source)
}

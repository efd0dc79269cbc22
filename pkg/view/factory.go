package view

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownExtension is returned when no engine handles a view's extension
var ErrUnknownExtension = errors.New("unrecognized extension in file")

// Default engine names
const (
	EngineTemplate = "template"
	EngineFile     = "file"
	EngineMarkdown = "markdown"
)

type callback struct {
	pattern string
	fn      func(v *View)
}

// Factory makes views and holds data shared between them
type Factory struct {
	mu         sync.RWMutex
	finder     *Finder
	engines    map[string]Engine
	extensions map[string]string
	shared     map[string]interface{}
	composers  []callback
	creators   []callback
	templates  *TemplateEngine
}

// NewFactory returns a factory with the template (tmpl), markdown (md)
// and file (html, css) engines registered, in that lookup order
func NewFactory(finder *Finder, cacheSize int) (*Factory, error) {
	templates, err := NewTemplateEngine(cacheSize)
	if err != nil {
		return nil, err
	}

	f := &Factory{
		finder:     finder,
		engines:    make(map[string]Engine),
		extensions: make(map[string]string),
		shared:     make(map[string]interface{}),
		templates:  templates,
	}
	f.AddExtension("tmpl", EngineTemplate, templates)
	f.AddExtension("md", EngineMarkdown, NewMarkdownEngine())
	f.AddExtension("html", EngineFile, FileEngine{})
	f.AddExtension("css", EngineFile, FileEngine{})
	return f, nil
}

// Make locates name and returns a view holding data. Creators registered
// for the view run before Make returns.
func (f *Factory) Make(name string, data map[string]interface{}) (*View, error) {
	src, err := f.finder.Find(name)
	if err != nil {
		return nil, err
	}
	engine, err := f.engineFor(src.Path)
	if err != nil {
		return nil, err
	}

	v := &View{
		factory: f,
		engine:  engine,
		name:    name,
		src:     src,
		data:    make(map[string]interface{}, len(data)),
	}
	for k, val := range data {
		v.data[k] = val
	}
	f.call(f.creatorsFor(name), v)
	return v, nil
}

// Render makes and renders name in one step
func (f *Factory) Render(name string, data map[string]interface{}) (string, error) {
	v, err := f.Make(name, data)
	if err != nil {
		return "", err
	}
	return v.Render()
}

// Exists reports whether name resolves to a file
func (f *Factory) Exists(name string) bool {
	_, err := f.finder.Find(name)
	return err == nil
}

// engineFor picks the engine of the longest registered extension that
// ends path
func (f *Factory) engineFor(p string) (Engine, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	best := ""
	base := path.Base(p)
	for ext := range f.extensions {
		if strings.HasSuffix(base, "."+ext) && len(ext) > len(best) {
			best = ext
		}
	}
	if best == "" {
		return nil, fmt.Errorf("%w: [%s]", ErrUnknownExtension, p)
	}
	engine, ok := f.engines[f.extensions[best]]
	if !ok {
		return nil, fmt.Errorf("%w: no engine %q for [%s]", ErrUnknownExtension, f.extensions[best], p)
	}
	return engine, nil
}

// Share makes key available to every view
func (f *Factory) Share(key string, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shared[key] = value
}

// Shared returns a shared value or def
func (f *Factory) Shared(key string, def interface{}) interface{} {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if v, ok := f.shared[key]; ok {
		return v
	}
	return def
}

// AllShared returns a copy of the shared data
func (f *Factory) AllShared() map[string]interface{} {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]interface{}, len(f.shared))
	for k, v := range f.shared {
		out[k] = v
	}
	return out
}

// Composer registers fn to run before each of views renders. View names
// may use path.Match wildcards, as in "errors.*".
func (f *Factory) Composer(views []string, fn func(v *View)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, name := range views {
		f.composers = append(f.composers, callback{pattern: name, fn: fn})
	}
}

// Creator registers fn to run when each of views is made
func (f *Factory) Creator(views []string, fn func(v *View)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, name := range views {
		f.creators = append(f.creators, callback{pattern: name, fn: fn})
	}
}

func (f *Factory) composersFor(name string) []func(*View) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return matching(f.composers, name)
}

func (f *Factory) creatorsFor(name string) []func(*View) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return matching(f.creators, name)
}

func matching(callbacks []callback, name string) []func(*View) {
	name, _ = normalizeName(name)
	var fns []func(*View)
	for _, cb := range callbacks {
		pattern, _ := normalizeName(cb.pattern)
		if ok, _ := path.Match(pattern, name); ok {
			fns = append(fns, cb.fn)
		}
	}
	return fns
}

func (f *Factory) call(fns []func(*View), v *View) {
	for _, fn := range fns {
		fn(v)
	}
}

// AddNamespace registers dirs of fsys for views named "ns::name"
func (f *Factory) AddNamespace(ns string, fsys fs.FS, dirs ...string) {
	f.finder.AddNamespace(ns, fsys, dirs...)
}

// ReplaceNamespace replaces the directories registered for ns
func (f *Factory) ReplaceNamespace(ns string, fsys fs.FS, dirs ...string) {
	f.finder.ReplaceNamespace(ns, fsys, dirs...)
}

// AddExtension registers engine under engineName for files ending in ext
func (f *Factory) AddExtension(ext, engineName string, engine Engine) {
	ext = strings.TrimPrefix(ext, ".")
	f.finder.AddExtension(ext)

	f.mu.Lock()
	defer f.mu.Unlock()
	if engine != nil {
		f.engines[engineName] = engine
	}
	f.extensions[ext] = engineName
}

// Extensions maps each registered extension to its engine name
func (f *Factory) Extensions() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]string, len(f.extensions))
	for k, v := range f.extensions {
		out[k] = v
	}
	return out
}

// Engine returns the engine registered under name
func (f *Factory) Engine(name string) (Engine, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.engines[name]
	return e, ok
}

// Engines lists the registered engine names
func (f *Factory) Engines() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.engines))
	for name := range f.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Finder returns the finder used to locate views
func (f *Factory) Finder() *Finder { return f.finder }

// Flush clears resolved view paths and compiled templates
func (f *Factory) Flush() {
	f.finder.Flush()
	f.templates.Flush()
}

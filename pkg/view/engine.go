package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"reflect"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Engine renders a located view file with data
type Engine interface {
	Get(src Source, data map[string]interface{}) (string, error)
}

// Directories parsed alongside every template view, relative to the
// view's location. Templates in them are named by their path without
// extension, as in {{template "layouts/app" .}}.
var sharedTemplateDirs = []string{"layouts", "partials"}

// DefaultTemplateCacheSize is the number of compiled templates kept by a
// TemplateEngine created with a non-positive size
const DefaultTemplateCacheSize = 128

// TemplateEngine renders html/template views. A view is parsed together
// with the layouts and partials of its location and the result is cached.
type TemplateEngine struct {
	cache *lru.Cache[string, *template.Template]
	funcs template.FuncMap
	now   func() time.Time
}

// NewTemplateEngine returns an engine caching up to size compiled templates
func NewTemplateEngine(size int) (*TemplateEngine, error) {
	if size <= 0 {
		size = DefaultTemplateCacheSize
	}
	cache, err := lru.New[string, *template.Template](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create template cache: %w", err)
	}

	e := &TemplateEngine{cache: cache, now: time.Now}
	e.funcs = template.FuncMap{
		"default": defaultValue,
		"year":    func() int { return e.now().Year() },
		"json":    toJSON,
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
	}
	return e, nil
}

// Funcs adds helper functions available to templates parsed afterwards
func (e *TemplateEngine) Funcs(funcs template.FuncMap) {
	for k, v := range funcs {
		e.funcs[k] = v
	}
	e.cache.Purge()
}

// Get executes the view into a buffer. Nothing is returned when execution
// fails part way. Leading whitespace is trimmed from the output.
func (e *TemplateEngine) Get(src Source, data map[string]interface{}) (string, error) {
	tmpl, err := e.compile(src)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render view %s: %w", src.Path, err)
	}
	return strings.TrimLeft(buf.String(), " \t\r\n"), nil
}

func (e *TemplateEngine) compile(src Source) (*template.Template, error) {
	if tmpl, ok := e.cache.Get(src.Key()); ok {
		return tmpl, nil
	}

	content, err := fs.ReadFile(src.FS, src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read view %s: %w", src.Path, err)
	}
	tmpl, err := template.New(path.Base(src.Path)).Funcs(e.funcs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse view %s: %w", src.Path, err)
	}

	for _, dir := range sharedTemplateDirs {
		matches, err := fs.Glob(src.FS, path.Join(src.Root, dir, "*."+path.Ext(src.Path)[1:]))
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if match == src.Path {
				continue
			}
			body, err := fs.ReadFile(src.FS, match)
			if err != nil {
				return nil, fmt.Errorf("failed to read template %s: %w", match, err)
			}
			rel := strings.TrimPrefix(match, src.Root+"/")
			if _, err := tmpl.New(strings.TrimSuffix(rel, path.Ext(rel))).Parse(string(body)); err != nil {
				return nil, fmt.Errorf("failed to parse template %s: %w", match, err)
			}
		}
	}

	e.cache.Add(src.Key(), tmpl)
	return tmpl, nil
}

// Flush drops every compiled template
func (e *TemplateEngine) Flush() { e.cache.Purge() }

// Len is the number of cached templates
func (e *TemplateEngine) Len() int { return e.cache.Len() }

// defaultValue returns value unless it is empty. The argument order fits
// pipelines: {{.title | default "MediaMind AI"}}.
func defaultValue(def interface{}, value ...interface{}) interface{} {
	if len(value) == 0 || isEmpty(value[0]) {
		return def
	}
	return value[0]
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.Bool:
		return !rv.Bool()
	}
	return rv.IsZero()
}

func toJSON(v interface{}) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

// FileEngine returns view files unchanged
type FileEngine struct{}

func (FileEngine) Get(src Source, _ map[string]interface{}) (string, error) {
	content, err := fs.ReadFile(src.FS, src.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read view %s: %w", src.Path, err)
	}
	return string(content), nil
}

// MarkdownEngine converts GitHub flavoured markdown views to HTML
type MarkdownEngine struct {
	md goldmark.Markdown
}

func NewMarkdownEngine() *MarkdownEngine {
	return &MarkdownEngine{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (e *MarkdownEngine) Get(src Source, _ map[string]interface{}) (string, error) {
	content, err := fs.ReadFile(src.FS, src.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read view %s: %w", src.Path, err)
	}
	var buf bytes.Buffer
	if err := e.md.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown %s: %w", src.Path, err)
	}
	return buf.String(), nil
}

package routing

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/mux"
)

// Route is a registered method, URI template and action
type Route struct {
	router     *Router
	method     string
	uri        string
	name       string
	namePrefix string
	action     Action
	middleware []Middleware
	mux        *mux.Route
	pattern    *regexp.Regexp
	vars       []string
}

func (rt *Route) Method() string { return rt.method }
func (rt *Route) URI() string    { return rt.uri }
func (rt *Route) GetName() string {
	rt.router.mu.RLock()
	defer rt.router.mu.RUnlock()
	return rt.name
}

// Name names the route for URL generation. Names inside a group get the
// group's name prefix.
func (rt *Route) Name(name string) *Route {
	rt.router.mu.Lock()
	defer rt.router.mu.Unlock()

	if rt.name != "" {
		delete(rt.router.named, rt.name)
	}
	rt.name = rt.namePrefix + name
	rt.router.named[rt.name] = rt
	return rt
}

// Middleware appends middleware run around this route's action only
func (rt *Route) Middleware(mw ...Middleware) *Route {
	rt.router.mu.Lock()
	defer rt.router.mu.Unlock()
	rt.middleware = append(rt.middleware, mw...)
	return rt
}

// params matches path against the route and returns its placeholder values
func (rt *Route) params(path string) (map[string]string, bool) {
	m := rt.pattern.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	vars := make(map[string]string, len(rt.vars))
	for i, name := range rt.vars {
		vars[name] = m[i+1]
	}
	return vars, true
}

func (rt *Route) matchPath(hr *http.Request, _ *mux.RouteMatch) bool {
	_, ok := rt.params(hr.URL.Path)
	return ok
}

// handler returns the action wrapped in its middleware, first middleware outermost
func (rt *Route) handler() Action {
	rt.router.mu.RLock()
	action := rt.action
	middleware := append([]Middleware(nil), rt.middleware...)
	rt.router.mu.RUnlock()

	for i := len(middleware) - 1; i >= 0; i-- {
		action = middleware[i](action)
	}
	return action
}

// GroupAttributes are shared by every route registered inside a group
type GroupAttributes struct {
	Prefix     string
	Name       string
	Middleware []Middleware
}

type group struct {
	prefix     string
	name       string
	middleware []Middleware
}

// Group registers the routes added by fn with the prefix, name prefix and
// middleware of attrs. Groups nest.
func (r *Router) Group(attrs GroupAttributes, fn func(r *Router)) {
	r.mu.Lock()
	r.groups = append(r.groups, group{
		prefix:     attrs.Prefix,
		name:       attrs.Name,
		middleware: attrs.Middleware,
	})
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.groups = r.groups[:len(r.groups)-1]
		r.mu.Unlock()
	}()

	fn(r)
}

// groupAttributes merges the open groups. Callers hold r.mu.
func (r *Router) groupAttributes() (string, []Middleware, string) {
	var prefix, name string
	var middleware []Middleware
	for _, g := range r.groups {
		if p := strings.Trim(g.prefix, "/"); p != "" {
			prefix += "/" + p
		}
		name += g.name
		middleware = append(middleware, g.middleware...)
	}
	return prefix, middleware, name
}

package routing

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/mediamind-ai/mediamind/pkg/web"
)

var (
	// ErrInvalidAction is returned when a route is registered without an action
	ErrInvalidAction = errors.New("invalid route action")
	// ErrUnsupportedMethod is returned when a route uses a method without a table
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
	// ErrRouteNotFound is returned by URL for unknown route names
	ErrRouteNotFound = errors.New("route not found")
)

// Methods lists the methods that own a route table, in display order
var Methods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// Action handles a matched request
type Action func(req *web.Request) (*web.Response, error)

// Middleware wraps an action
type Middleware func(next Action) Action

// ErrorHandler writes the response for an action that failed
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Content adapts a function returning a page body into an action that
// responds 200 with that body
func Content(fn func(req *web.Request) (string, error)) Action {
	return func(req *web.Request) (*web.Response, error) {
		body, err := fn(req)
		if err != nil {
			return nil, err
		}
		return web.HTML(body, http.StatusOK)
	}
}

// Router matches requests against per-method route tables. Routes are
// tried in registration order and the first match wins. Paths match
// without regard to case; parameter values keep the case they were sent in.
type Router struct {
	mu     sync.RWMutex
	tables map[string]*mux.Router
	routes map[string]*Route
	byMux  map[*mux.Route]*Route
	order  []*Route
	named  map[string]*Route
	groups []group

	// ErrorHandler is called by ServeHTTP when an action returns an error
	ErrorHandler ErrorHandler
}

// NewRouter returns a router with an empty table per supported method
func NewRouter() *Router {
	r := &Router{
		tables: make(map[string]*mux.Router, len(Methods)),
		routes: make(map[string]*Route),
		byMux:  make(map[*mux.Route]*Route),
		named:  make(map[string]*Route),
	}
	for _, m := range Methods {
		r.tables[m] = mux.NewRouter()
	}
	return r
}

// prepareURI turns "about/" and "/about" into "/about"
func prepareURI(uri string) string {
	return "/" + strings.Trim(uri, "/")
}

func (r *Router) Get(uri string, action Action) *Route    { return r.mustAdd(http.MethodGet, uri, action) }
func (r *Router) Post(uri string, action Action) *Route   { return r.mustAdd(http.MethodPost, uri, action) }
func (r *Router) Put(uri string, action Action) *Route    { return r.mustAdd(http.MethodPut, uri, action) }
func (r *Router) Patch(uri string, action Action) *Route  { return r.mustAdd(http.MethodPatch, uri, action) }
func (r *Router) Delete(uri string, action Action) *Route { return r.mustAdd(http.MethodDelete, uri, action) }

func (r *Router) mustAdd(method, uri string, action Action) *Route {
	route, err := r.AddRoute(method, uri, action)
	if err != nil {
		panic(err)
	}
	return route
}

// AddRoute registers action for method and uri. Registering the same
// method and uri again replaces the action and keeps the route's position.
func (r *Router) AddRoute(method, uri string, action Action) (*Route, error) {
	if action == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrInvalidAction, method, uri)
	}
	method = strings.ToUpper(method)

	r.mu.Lock()
	defer r.mu.Unlock()

	table, ok := r.tables[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	prefix, middleware, namePrefix := r.groupAttributes()
	uri = prepareURI(prefix + "/" + strings.Trim(uri, "/"))

	key := method + " " + uri
	if existing, ok := r.routes[key]; ok {
		existing.action = action
		existing.middleware = middleware
		return existing, nil
	}

	// the template route validates uri and builds URLs; the table route
	// matches through the case-insensitive pattern
	tmpl := mux.NewRouter().NewRoute().Path(uri)
	if err := tmpl.GetError(); err != nil {
		return nil, fmt.Errorf("invalid route %s %s: %w", method, uri, err)
	}
	pattern, err := compilePattern(tmpl)
	if err != nil {
		return nil, fmt.Errorf("invalid route %s %s: %w", method, uri, err)
	}
	vars, _ := tmpl.GetVarNames()

	route := &Route{
		router:     r,
		method:     method,
		uri:        uri,
		namePrefix: namePrefix,
		action:     action,
		middleware: middleware,
		mux:        tmpl,
		pattern:    pattern,
		vars:       vars,
	}
	r.routes[key] = route
	r.byMux[table.NewRoute().MatcherFunc(route.matchPath)] = route
	r.order = append(r.order, route)
	return route, nil
}

// Dispatch finds the route for req and runs its action. A method without
// a route table yields 405, an unmatched path yields 404 and a body over
// web.MaxBodySize yields 413. Errors returned by the action are passed
// through.
func (r *Router) Dispatch(req *web.Request) (*web.Response, error) {
	method := req.Method()
	if method == http.MethodHead {
		method = http.MethodGet
	}

	route, vars, err := r.match(method, req.HTTP())
	if errors.Is(err, ErrUnsupportedMethod) {
		return statusResponse(http.StatusMethodNotAllowed, "405 Method Not Allowed", map[string]string{
			"Allow": strings.Join(append([]string{http.MethodHead}, Methods...), ", "),
		})
	}
	if route == nil {
		return statusResponse(http.StatusNotFound, "404 Not Found", nil)
	}
	if _, err := req.Content(); errors.Is(err, web.ErrBodyTooLarge) {
		return statusResponse(http.StatusRequestEntityTooLarge, "413 Payload Too Large", nil)
	}

	return route.handler()(req.WithParams(vars))
}

func (r *Router) match(method string, hr *http.Request) (*Route, map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.tables[method]
	if !ok {
		return nil, nil, ErrUnsupportedMethod
	}

	probe := *hr
	u := *hr.URL
	u.Path = prepareURI(u.Path)
	u.RawPath = ""
	probe.URL = &u

	var match mux.RouteMatch
	if !table.Match(&probe, &match) || match.MatchErr != nil {
		return nil, nil, nil
	}
	route := r.byMux[match.Route]
	vars, _ := route.params(u.Path)
	return route, vars, nil
}

// compilePattern returns the anchored path regexp of tmpl, matching
// literal segments without regard to case
func compilePattern(tmpl *mux.Route) (*regexp.Regexp, error) {
	expr, err := tmpl.GetPathRegexp()
	if err != nil {
		return nil, err
	}
	return regexp.Compile("(?i)" + expr)
}

func statusResponse(status int, text string, headers map[string]string) (*web.Response, error) {
	res, err := web.New(text, status, headers)
	if err != nil {
		return nil, err
	}
	res.SetHeader("Content-Type", []string{"text/plain; charset=utf-8"}, true)
	return res, nil
}

// ServeHTTP dispatches r and writes the response. Action errors go to
// ErrorHandler, or produce a plain 500 when none is set.
func (r *Router) ServeHTTP(w http.ResponseWriter, hr *http.Request) {
	res, err := r.Dispatch(web.NewRequest(hr))
	if err != nil {
		if r.ErrorHandler != nil {
			r.ErrorHandler(w, hr, err)
			return
		}
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}
	_ = res.Send(w)
}

// URL builds the path of a named route
func (r *Router) URL(name string, params map[string]string) (string, error) {
	r.mu.RLock()
	route, ok := r.named[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}

	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, k, v)
	}
	u, err := route.mux.URLPath(pairs...)
	if err != nil {
		return "", fmt.Errorf("failed to build URL for route %s: %w", name, err)
	}
	return u.String(), nil
}

// HasRoute reports whether a route with name exists
func (r *Router) HasRoute(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.named[name]
	return ok
}

// RouteInfo describes a registered route
type RouteInfo struct {
	Method string `json:"method"`
	URI    string `json:"uri"`
	Name   string `json:"name,omitempty"`
}

// Routes lists registered routes in registration order
func (r *Router) Routes() []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RouteInfo, 0, len(r.order))
	for _, route := range r.order {
		out = append(out, RouteInfo{Method: route.method, URI: route.uri, Name: route.name})
	}
	return out
}

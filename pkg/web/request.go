package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// MaxBodySize bounds how much of a request body is read
const MaxBodySize = 10 << 20

// ErrBodyTooLarge is returned by Content when the body exceeds MaxBodySize
var ErrBodyTooLarge = errors.New("request body too large")

// Request wraps an incoming *http.Request with input accessors
type Request struct {
	r      *http.Request
	params map[string]string
	body   *body
}

// body is shared between copies of a request
type body struct {
	once  sync.Once
	data  []byte
	err   error
	input map[string]interface{}
}

// NewRequest wraps r. The body is read lazily on first access.
func NewRequest(r *http.Request) *Request {
	return &Request{r: r, params: map[string]string{}, body: &body{}}
}

// HTTP returns the underlying request
func (req *Request) HTTP() *http.Request { return req.r }

// Context returns the request context
func (req *Request) Context() context.Context { return req.r.Context() }

// WithContext returns a shallow copy of the request carrying ctx
func (req *Request) WithContext(ctx context.Context) *Request {
	return &Request{r: req.r.WithContext(ctx), params: req.params, body: req.body}
}

// WithParams returns a shallow copy of the request carrying route parameters
func (req *Request) WithParams(params map[string]string) *Request {
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return &Request{r: req.r, params: cp, body: req.body}
}

// Method returns the upper-case request method
func (req *Request) Method() string {
	return strings.ToUpper(req.r.Method)
}

// URI returns the raw request URI including the query string
func (req *Request) URI() string {
	return req.r.URL.RequestURI()
}

// PathInfo returns the request path with a leading slash
func (req *Request) PathInfo() string {
	p := req.r.URL.EscapedPath()
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// Path returns the request path without surrounding slashes, or "/" for the root
func (req *Request) Path() string {
	p := strings.Trim(req.PathInfo(), "/")
	if p == "" {
		return "/"
	}
	return p
}

// DecodedPath returns Path with percent-encoding removed
func (req *Request) DecodedPath() string {
	p, err := url.PathUnescape(req.Path())
	if err != nil {
		return req.Path()
	}
	return p
}

// Segments returns the non-empty path segments
func (req *Request) Segments() []string {
	var out []string
	for _, s := range strings.Split(req.DecodedPath(), "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Segment returns the 1-based path segment i, or def
func (req *Request) Segment(i int, def string) string {
	segments := req.Segments()
	if i < 1 || i > len(segments) {
		return def
	}
	return segments[i-1]
}

// Param returns a route parameter
func (req *Request) Param(name string) string {
	return req.params[name]
}

// Params returns a copy of the route parameters
func (req *Request) Params() map[string]string {
	out := make(map[string]string, len(req.params))
	for k, v := range req.params {
		out[k] = v
	}
	return out
}

// Query returns the query string values
func (req *Request) Query() map[string]interface{} {
	return flatten(req.r.URL.Query())
}

// Get returns a query string value or def
func (req *Request) Get(key string, def interface{}) interface{} {
	if v, ok := req.r.URL.Query()[key]; ok && len(v) > 0 {
		return v[0]
	}
	return def
}

// Post returns a body value or def
func (req *Request) Post(key string, def interface{}) interface{} {
	if v, ok := req.PostAll()[key]; ok {
		return v
	}
	return def
}

// PostAll returns every body value, decoded from a form or from JSON
func (req *Request) PostAll() map[string]interface{} {
	req.readBody()
	out := make(map[string]interface{}, len(req.body.input))
	for k, v := range req.body.input {
		out[k] = v
	}
	return out
}

// All returns query and body values merged, body values winning
func (req *Request) All() map[string]interface{} {
	out := req.Query()
	for k, v := range req.PostAll() {
		out[k] = v
	}
	return out
}

// Input returns a body value, then a query value, then def
func (req *Request) Input(key string, def interface{}) interface{} {
	if v, ok := req.PostAll()[key]; ok {
		return v
	}
	return req.Get(key, def)
}

// InputString returns Input as a string
func (req *Request) InputString(key, def string) string {
	switch v := req.Input(key, nil).(type) {
	case nil:
		return def
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// InputSource returns the query for GET and HEAD requests, the body otherwise
func (req *Request) InputSource() map[string]interface{} {
	if req.Method() == http.MethodGet || req.Method() == http.MethodHead {
		return req.Query()
	}
	return req.PostAll()
}

// Content returns the raw request body. Bodies over MaxBodySize yield
// ErrBodyTooLarge and no input values.
func (req *Request) Content() ([]byte, error) {
	req.readBody()
	return req.body.data, req.body.err
}

// JSON returns a top-level value of a JSON body, or nil
func (req *Request) JSON(key string) interface{} {
	var data map[string]interface{}
	if err := req.DecodeJSON(&data); err != nil {
		return nil
	}
	return data[key]
}

// DecodeJSON unmarshals the request body into v
func (req *Request) DecodeJSON(v interface{}) error {
	body, err := req.Content()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return io.EOF
	}
	return json.Unmarshal(body, v)
}

func (req *Request) readBody() {
	b := req.body
	b.once.Do(func() {
		b.input = map[string]interface{}{}
		if req.r.Body == nil || req.r.Body == http.NoBody {
			return
		}
		b.data, b.err = io.ReadAll(http.MaxBytesReader(nil, req.r.Body, MaxBodySize))
		_ = req.r.Body.Close()
		req.r.Body = io.NopCloser(bytes.NewReader(b.data))
		if b.err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(b.err, &tooLarge) {
				b.err = fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
			}
			return
		}

		if req.IsJSON() {
			var data map[string]interface{}
			if err := json.Unmarshal(b.data, &data); err == nil {
				b.input = data
			}
			return
		}

		ct := req.r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
			if values, err := url.ParseQuery(string(b.data)); err == nil {
				b.input = flatten(values)
			}
		} else if strings.HasPrefix(ct, "multipart/form-data") {
			cp := req.r.Clone(req.r.Context())
			cp.Body = io.NopCloser(bytes.NewReader(b.data))
			if err := cp.ParseMultipartForm(MaxBodySize); err == nil {
				b.input = flatten(cp.MultipartForm.Value)
			}
		}
	})
}

// flatten keeps single values as strings and repeated ones as slices
func flatten(values map[string][]string) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch len(v) {
		case 0:
			out[k] = ""
		case 1:
			out[k] = v[0]
		default:
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

// Cookie returns a cookie value or def
func (req *Request) Cookie(name, def string) string {
	c, err := req.r.Cookie(name)
	if err != nil {
		return def
	}
	return c.Value
}

// Cookies returns every cookie by name
func (req *Request) Cookies() map[string]string {
	out := map[string]string{}
	for _, c := range req.r.Cookies() {
		out[c.Name] = c.Value
	}
	return out
}

// Header returns a header value or def. "X_Requested_With" and
// "x-requested-with" name the same header.
func (req *Request) Header(key, def string) string {
	key = strings.ReplaceAll(key, "_", "-")
	if v := req.r.Header.Get(key); v != "" {
		return v
	}
	if strings.EqualFold(key, "Host") && req.r.Host != "" {
		return req.r.Host
	}
	return def
}

// Headers returns the first value of every header
func (req *Request) Headers() map[string]string {
	out := make(map[string]string, len(req.r.Header))
	for k, v := range req.r.Header {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// IsAjax reports whether the request was sent with XMLHttpRequest
func (req *Request) IsAjax() bool {
	return strings.EqualFold(req.Header("X-Requested-With", ""), "XMLHttpRequest")
}

// IsJSON reports whether the request body is JSON
func (req *Request) IsJSON() bool {
	ct := req.r.Header.Get("Content-Type")
	return strings.Contains(ct, "/json") || strings.Contains(ct, "+json")
}

// WantsJSON reports whether the client prefers a JSON response
func (req *Request) WantsJSON() bool {
	accept := req.r.Header.Get("Accept")
	return strings.Contains(accept, "/json") || strings.Contains(accept, "+json")
}

// IP returns the client address from Client-IP, X-Forwarded-For or the
// connection, defaulting to 127.0.0.1
func (req *Request) IP() string {
	if ip := req.r.Header.Get("Client-IP"); ip != "" {
		return ip
	}
	if fwd := req.r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if req.r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(req.r.RemoteAddr); err == nil {
			return host
		}
		return req.r.RemoteAddr
	}
	return "127.0.0.1"
}

// Scheme returns https for TLS or forwarded-https requests, http otherwise
func (req *Request) Scheme() string {
	if req.IsSecure() {
		return "https"
	}
	return "http"
}

// IsSecure reports whether the request arrived over TLS
func (req *Request) IsSecure() bool {
	if req.r.TLS != nil {
		return true
	}
	return strings.EqualFold(req.r.Header.Get("X-Forwarded-Proto"), "https")
}

// Host returns the request host, defaulting to localhost
func (req *Request) Host() string {
	if req.r.Host != "" {
		return req.r.Host
	}
	if req.r.URL.Host != "" {
		return req.r.URL.Host
	}
	return "localhost"
}

// Root returns scheme and host
func (req *Request) Root() string {
	return req.Scheme() + "://" + req.Host()
}

// URL returns the request URL without the query string
func (req *Request) URL() string {
	return strings.TrimRight(req.Root()+req.PathInfo(), "/")
}

// FullURL returns the request URL including the query string
func (req *Request) FullURL() string {
	if q := req.r.URL.RawQuery; q != "" {
		return req.URL() + "?" + q
	}
	return req.URL()
}

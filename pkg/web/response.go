package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrInvalidStatusCode is returned for status codes outside 100-599
var ErrInvalidStatusCode = errors.New("invalid HTTP status code")

// Response is an HTTP response built by an action and written with Send
type Response struct {
	content         []byte
	statusCode      int
	statusText      string
	headers         map[string][]string
	protocolVersion string
}

// New returns a response with the given content, status and headers
func New(content string, status int, headers map[string]string) (*Response, error) {
	res := &Response{
		content:         []byte(content),
		headers:         map[string][]string{},
		protocolVersion: "1.1",
	}
	if err := res.SetStatusCode(status, ""); err != nil {
		return nil, err
	}
	for k, v := range headers {
		res.SetHeader(k, []string{v}, true)
	}
	return res, nil
}

// Text returns a 200 plain text response
func Text(content string) *Response {
	res, _ := New(content, http.StatusOK, map[string]string{"Content-Type": "text/plain; charset=utf-8"})
	return res
}

// HTML returns an HTML response
func HTML(content string, status int) (*Response, error) {
	return New(content, status, map[string]string{"Content-Type": "text/html; charset=utf-8"})
}

// JSON returns a response with data encoded as JSON
func JSON(data interface{}, status int, headers map[string]string) (*Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	res, err := New(string(body), status, headers)
	if err != nil {
		return nil, err
	}
	res.SetHeader("Content-Type", []string{"application/json"}, true)
	return res, nil
}

// Redirect returns a redirect to url. A zero status means 302 Found.
func Redirect(url string, status int, headers map[string]string) (*Response, error) {
	if status == 0 {
		status = http.StatusFound
	}
	res, err := New("", status, headers)
	if err != nil {
		return nil, err
	}
	res.SetHeader("Location", []string{url}, true)
	return res, nil
}

// normalizeHeader turns "Content_Type" and "Content-Type" into "content-type"
func normalizeHeader(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}

// Content returns the response body
func (res *Response) Content() []byte { return res.content }

// String returns the response body as a string
func (res *Response) String() string { return string(res.content) }

// SetContent replaces the response body
func (res *Response) SetContent(content string) *Response {
	res.content = []byte(content)
	return res
}

// StatusCode returns the response status code
func (res *Response) StatusCode() int { return res.statusCode }

// StatusText returns the reason phrase sent with the status code
func (res *Response) StatusText() string { return res.statusText }

// SetStatusCode sets the status code and its reason phrase. An empty text
// selects the standard phrase.
func (res *Response) SetStatusCode(code int, text string) error {
	if code < 100 || code >= 600 {
		return fmt.Errorf("%w: The HTTP status code \"%d\" is not valid.", ErrInvalidStatusCode, code)
	}
	res.statusCode = code
	if text == "" {
		text = http.StatusText(code)
		if text == "" {
			text = "unknown status"
		}
	}
	res.statusText = text
	return nil
}

// ProtocolVersion returns the HTTP version used in the status line
func (res *Response) ProtocolVersion() string { return res.protocolVersion }

// SetProtocolVersion sets the HTTP version used in the status line
func (res *Response) SetProtocolVersion(version string) *Response {
	res.protocolVersion = version
	return res
}

// SetHeader sets a header, appending to existing values unless replace is set
func (res *Response) SetHeader(key string, values []string, replace bool) *Response {
	key = normalizeHeader(key)
	if replace {
		res.headers[key] = append([]string(nil), values...)
	} else {
		res.headers[key] = append(res.headers[key], values...)
	}
	return res
}

// Header returns the first value of a header
func (res *Response) Header(key string) string {
	if v := res.headers[normalizeHeader(key)]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Headers returns a copy of every header keyed by normalised name
func (res *Response) Headers() map[string][]string {
	out := make(map[string][]string, len(res.headers))
	for k, v := range res.headers {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// HasHeader reports whether a header is set
func (res *Response) HasHeader(key string) bool {
	_, ok := res.headers[normalizeHeader(key)]
	return ok
}

// RemoveHeader deletes a header
func (res *Response) RemoveHeader(key string) *Response {
	delete(res.headers, normalizeHeader(key))
	return res
}

// Send writes headers, status and body to w
func (res *Response) Send(w http.ResponseWriter) error {
	keys := make([]string, 0, len(res.headers))
	for k := range res.headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := w.Header()
	for _, k := range keys {
		name := http.CanonicalHeaderKey(k)
		h.Del(name)
		for _, v := range res.headers[k] {
			h.Add(name, v)
		}
	}
	if !res.HasHeader("Content-Type") && len(res.content) > 0 {
		h.Set("Content-Type", "text/html; charset=utf-8")
	}

	w.WriteHeader(res.statusCode)
	if len(res.content) == 0 {
		return nil
	}
	_, err := w.Write(res.content)
	return err
}

// IsInvalid reports a status code outside 100-599
func (res *Response) IsInvalid() bool {
	return res.statusCode < 100 || res.statusCode >= 600
}

func (res *Response) IsInformational() bool {
	return res.statusCode >= 100 && res.statusCode < 200
}

func (res *Response) IsSuccessful() bool {
	return res.statusCode >= 200 && res.statusCode < 300
}

func (res *Response) IsRedirection() bool {
	return res.statusCode >= 300 && res.statusCode < 400
}

func (res *Response) IsClientError() bool {
	return res.statusCode >= 400 && res.statusCode < 500
}

func (res *Response) IsServerError() bool {
	return res.statusCode >= 500 && res.statusCode < 600
}

func (res *Response) IsOK() bool        { return res.statusCode == http.StatusOK }
func (res *Response) IsForbidden() bool { return res.statusCode == http.StatusForbidden }
func (res *Response) IsNotFound() bool  { return res.statusCode == http.StatusNotFound }

// IsRedirect reports whether the response redirects, optionally to location
func (res *Response) IsRedirect(location string) bool {
	switch res.statusCode {
	case http.StatusCreated, http.StatusMovedPermanently, http.StatusFound,
		http.StatusSeeOther, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return location == "" || location == res.Header("Location")
	}
	return false
}

// IsEmpty reports 204 and 304 responses
func (res *Response) IsEmpty() bool {
	return res.statusCode == http.StatusNoContent || res.statusCode == http.StatusNotModified
}

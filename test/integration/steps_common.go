package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	ids          map[string]interface{}
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:  tc,
		ids: make(map[string]interface{}),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.Reset()
	})

	// Background steps
	sc.Step(`^the MediaMind server is running$`, s.theServerIsRunning)

	// Request steps
	sc.Step(`^I request "([^"]*)"$`, s.iRequest)
	sc.Step(`^I request "([^"]*)" accepting "([^"]*)"$`, s.iRequestAccepting)
	sc.Step(`^I send a (GET|POST|PUT|PATCH|DELETE) request to "([^"]*)"$`, s.iSendARequestTo)
	sc.Step(`^I send a (POST|PUT|PATCH) request to "([^"]*)" with JSON:$`, s.iSendARequestWithJSON)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should contain "([^"]*)"$`, s.theResponseHeaderShouldContain)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, s.theJSONFieldShouldBe)
	sc.Step(`^the JSON field "([^"]*)" should be true$`, s.theJSONFieldShouldBeTrue)

	s.registerContentSteps(sc)
}

func (s *StepsContext) theServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) iRequest(path string) error {
	return s.do(http.MethodGet, path, "", nil)
}

func (s *StepsContext) iRequestAccepting(path, accept string) error {
	return s.do(http.MethodGet, path, "", map[string]string{"Accept": accept})
}

func (s *StepsContext) iSendARequestTo(method, path string) error {
	return s.do(method, path, "", s.headers())
}

func (s *StepsContext) iSendARequestWithJSON(method, path string, body *godog.DocString) error {
	headers := s.headers()
	headers["Content-Type"] = "application/json"
	return s.do(method, path, body.Content, headers)
}

func (s *StepsContext) headers() map[string]string {
	headers := map[string]string{"Accept": "application/json"}
	if s.authToken != "" {
		headers["Authorization"] = "Bearer " + s.authToken
	}
	return headers
}

func (s *StepsContext) do(method, path, body string, headers map[string]string) error {
	path = s.expand(path)
	req, err := http.NewRequest(method, s.tc.ServerURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

// expand replaces {name} with the id remembered for name
func (s *StepsContext) expand(path string) string {
	for name, id := range s.ids {
		path = strings.ReplaceAll(path, "{"+name+"}", fmt.Sprint(id))
	}
	return path
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldContain(expected string) error {
	if !strings.Contains(string(s.responseBody), expected) {
		return fmt.Errorf("expected body to contain %q, got %q", expected, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseHeaderShouldContain(name, expected string) error {
	actual := s.response.Header.Get(name)
	if !strings.Contains(actual, expected) {
		return fmt.Errorf("expected header %s to contain %q, got %q", name, expected, actual)
	}
	return nil
}

func (s *StepsContext) jsonField(path string) (interface{}, error) {
	var body interface{}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	for _, key := range strings.Split(path, ".") {
		m, ok := body.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", path, key)
		}
		if body, ok = m[key]; !ok {
			return nil, fmt.Errorf("field %q not found in %s", path, string(s.responseBody))
		}
	}
	return body, nil
}

func (s *StepsContext) theJSONFieldShouldBe(path, expected string) error {
	v, err := s.jsonField(path)
	if err != nil {
		return err
	}
	if fmt.Sprint(v) != expected {
		return fmt.Errorf("expected %s to be %q, got %v", path, expected, v)
	}
	return nil
}

func (s *StepsContext) theJSONFieldShouldBeTrue(path string) error {
	v, err := s.jsonField(path)
	if err != nil {
		return err
	}
	if v != true {
		return fmt.Errorf("expected %s to be true, got %v", path, v)
	}
	return nil
}

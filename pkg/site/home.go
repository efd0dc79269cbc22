package site

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mediamind-ai/mediamind/pkg/audit"
	"github.com/mediamind-ai/mediamind/pkg/database"
	"github.com/mediamind-ai/mediamind/pkg/validation"
	"github.com/mediamind-ai/mediamind/pkg/view"
	"github.com/mediamind-ai/mediamind/pkg/web"
)

// ContactForm is the body of POST /contact
type ContactForm struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10"`
}

// Reason is an entry of the about page
type Reason struct {
	Title string
	Body  string
}

var features = []string{
	"Automated Content Generation",
	"Smart Content Curation",
	"Multimedia Enhancement",
	"Audience Intelligence",
	"Workflow Automation",
}

const aboutDescription = "MediaMind AI is an integrated artificial intelligence platform designed specifically for media organizations to streamline content creation, distribution, and audience engagement."

var reasons = []Reason{
	{"Cutting-Edge Technology", "Built on the latest AI research to keep your newsroom ahead."},
	{"User-Centric Design", "Tools that fit the way editors and producers already work."},
	{"Scalable Solutions", "From a single blog to a global network, MediaMind grows with you."},
	{"Data Security", "Your content and audience data stay protected and private."},
}

// APIEndpoints documents the routes of the content API
var APIEndpoints = map[string]string{
	"GET /api/content":         "List all content",
	"POST /api/content":        "Create new content",
	"GET /api/content/{id}":    "Get specific content",
	"PUT /api/content/{id}":    "Update content",
	"DELETE /api/content/{id}": "Delete content",
}

// HomeController serves the public pages
type HomeController struct {
	Views    *view.Factory
	Messages *database.Schema
	Logger   *zap.Logger
	Audit    *audit.Auditor
}

func (c *HomeController) view(name string, data map[string]interface{}, status int) (*web.Response, error) {
	html, err := c.Views.Render(name, data)
	if err != nil {
		return nil, err
	}
	return web.HTML(html, status)
}

func (c *HomeController) Index(req *web.Request) (*web.Response, error) {
	return c.view("home", map[string]interface{}{
		"title":    "Welcome to MediaMind AI",
		"features": features,
	}, http.StatusOK)
}

func (c *HomeController) About(req *web.Request) (*web.Response, error) {
	return c.view("about", map[string]interface{}{
		"title":       "About MediaMind AI",
		"description": aboutDescription,
		"reasons":     reasons,
	}, http.StatusOK)
}

// ContactForm shows the contact form
func (c *HomeController) ContactForm(req *web.Request) (*web.Response, error) {
	return c.view("contact", map[string]interface{}{"title": "Contact Us"}, http.StatusOK)
}

// Contact validates a contact submission and stores it when a database is
// available
func (c *HomeController) Contact(req *web.Request) (*web.Response, error) {
	form := ContactForm{
		Name:    strings.TrimSpace(req.InputString("name", "")),
		Email:   strings.TrimSpace(req.InputString("email", "")),
		Message: strings.TrimSpace(req.InputString("message", "")),
	}
	if res, err := validate(form); res != nil || err != nil {
		return res, err
	}

	stored := connected(c.Messages)
	if stored {
		msg, err := c.Messages.Create(req.Context(), map[string]interface{}{
			"name":    form.Name,
			"email":   form.Email,
			"message": form.Message,
		})
		if err != nil {
			return nil, err
		}
		c.logger().Info("contact message stored", zap.Any("id", msg.Key()))
	}
	c.Audit.Record(req.Context(), audit.ContactEvent{Email: form.Email, ClientIP: req.IP(), Stored: stored})

	return web.JSON(map[string]interface{}{
		"success": true,
		"message": "Thank you for your message. We will get back to you soon!",
	}, http.StatusOK, nil)
}

// APIDocs describes the API as JSON, or as a page for browsers
func (c *HomeController) APIDocs(req *web.Request) (*web.Response, error) {
	if wantsHTML(req) {
		reference, err := c.Views.Render("api.reference", nil)
		if err != nil {
			return nil, err
		}
		return c.view("api.docs", map[string]interface{}{
			"title":     "API Documentation",
			"reference": template.HTML(reference),
		}, http.StatusOK)
	}

	return web.JSON(map[string]interface{}{
		"endpoints": APIEndpoints,
		"authentication": map[string]string{
			"type":        "Bearer Token",
			"description": "Include your API token in the Authorization header",
		},
	}, http.StatusOK, nil)
}

func (c *HomeController) NotFound(req *web.Request) (*web.Response, error) {
	return c.view("errors.404", map[string]interface{}{"title": "Page Not Found"}, http.StatusNotFound)
}

func (c *HomeController) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func wantsHTML(req *web.Request) bool {
	if req.InputString("format", "") == "html" {
		return true
	}
	return strings.Contains(req.Header("Accept", ""), "text/html")
}

// validate returns a 422 response listing the field errors of v
func validate(v interface{}) (*web.Response, error) {
	err := validation.Struct(v)
	if err == nil {
		return nil, nil
	}
	var fieldErrors validation.Errors
	if errors.As(err, &fieldErrors) {
		return web.JSON(map[string]interface{}{"errors": fieldErrors}, http.StatusUnprocessableEntity, nil)
	}
	return nil, err
}

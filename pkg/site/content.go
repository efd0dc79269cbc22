package site

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mediamind-ai/mediamind/pkg/audit"
	"github.com/mediamind-ai/mediamind/pkg/auth"
	"github.com/mediamind-ai/mediamind/pkg/database"
	"github.com/mediamind-ai/mediamind/pkg/web"
)

// ContentForm is the body of POST /api/content
type ContentForm struct {
	Title  string `json:"title" validate:"required,max=255"`
	Body   string `json:"body" validate:"required"`
	Status string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// ContentPatch is the body of PUT and PATCH /api/content/{id}; absent
// fields keep their value
type ContentPatch struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=255"`
	Body   *string `json:"body" validate:"omitempty,min=1"`
	Status *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// ContentController is the bearer-token protected /api/content resource
type ContentController struct {
	Contents *database.Schema
	Audit    *audit.Auditor
}

func (c *ContentController) Index(req *web.Request) (*web.Response, error) {
	items, err := c.Contents.All(req.Context())
	if err != nil {
		return failure(err)
	}
	if items == nil {
		items = []*database.Model{}
	}
	return web.JSON(map[string]interface{}{"data": items}, http.StatusOK, nil)
}

func (c *ContentController) Store(req *web.Request) (*web.Response, error) {
	form := ContentForm{
		Title:  strings.TrimSpace(req.InputString("title", "")),
		Body:   req.InputString("body", ""),
		Status: req.InputString("status", ""),
	}
	if res, err := validate(form); res != nil || err != nil {
		return res, err
	}
	if form.Status == "" {
		form.Status = StatusDraft
	}

	item := c.Contents.New(map[string]interface{}{
		"title":  form.Title,
		"body":   form.Body,
		"status": form.Status,
	})
	item.Set("author", auth.Subject(req.Context()))
	if err := item.Save(req.Context()); err != nil {
		c.record(req, audit.OperationCreate, nil, err)
		return failure(err)
	}
	c.record(req, audit.OperationCreate, item, nil)
	return web.JSON(map[string]interface{}{"data": item}, http.StatusCreated, nil)
}

func (c *ContentController) Show(req *web.Request) (*web.Response, error) {
	item, res, err := c.find(req)
	if item == nil {
		return res, err
	}
	return web.JSON(map[string]interface{}{"data": item}, http.StatusOK, nil)
}

func (c *ContentController) Update(req *web.Request) (*web.Response, error) {
	var patch ContentPatch
	input := req.PostAll()
	for key, field := range map[string]**string{"title": &patch.Title, "body": &patch.Body, "status": &patch.Status} {
		if v, ok := input[key].(string); ok {
			*field = &v
		}
	}
	if res, err := validate(patch); res != nil || err != nil {
		return res, err
	}

	item, res, err := c.find(req)
	if item == nil {
		return res, err
	}

	attrs := map[string]interface{}{}
	if patch.Title != nil {
		attrs["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Body != nil {
		attrs["body"] = *patch.Body
	}
	if patch.Status != nil {
		attrs["status"] = *patch.Status
	}
	if _, err := item.Update(req.Context(), attrs); err != nil {
		c.record(req, audit.OperationUpdate, item, err)
		return failure(err)
	}
	c.record(req, audit.OperationUpdate, item, nil)
	return web.JSON(map[string]interface{}{"data": item}, http.StatusOK, nil)
}

func (c *ContentController) Destroy(req *web.Request) (*web.Response, error) {
	item, res, err := c.find(req)
	if item == nil {
		return res, err
	}
	if _, err := item.Delete(req.Context()); err != nil {
		c.record(req, audit.OperationDelete, item, err)
		return failure(err)
	}
	c.record(req, audit.OperationDelete, item, nil)
	return web.New("", http.StatusNoContent, nil)
}

func (c *ContentController) record(req *web.Request, op string, item *database.Model, err error) {
	e := audit.ContentEvent{
		Subject:   auth.Subject(req.Context()),
		ClientIP:  req.IP(),
		Operation: op,
		Success:   err == nil,
	}
	if item != nil && item.Key() != nil {
		e.ContentID = fmt.Sprint(item.Key())
	}
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	c.Audit.Record(req.Context(), e)
}

// find loads the content named by the id parameter. A nil model comes with
// the response to send instead.
func (c *ContentController) find(req *web.Request) (*database.Model, *web.Response, error) {
	id, err := strconv.ParseInt(req.Param("id"), 10, 64)
	if err != nil || id < 1 {
		res, err := notFound()
		return nil, res, err
	}
	item, err := c.Contents.Find(req.Context(), id)
	if err != nil {
		res, err := failure(err)
		return nil, res, err
	}
	return item, nil, nil
}

func notFound() (*web.Response, error) {
	return web.JSON(map[string]string{"error": "Content not found"}, http.StatusNotFound, nil)
}

// failure maps model errors to API responses; anything else goes to the
// error handler
func failure(err error) (*web.Response, error) {
	switch {
	case errors.Is(err, database.ErrModelNotFound):
		return notFound()
	case errors.Is(err, database.ErrNoConnection):
		return web.JSON(map[string]string{"error": err.Error()}, http.StatusServiceUnavailable, nil)
	}
	return nil, err
}

package site

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mediamind-ai/mediamind/pkg/audit"
	"github.com/mediamind-ai/mediamind/pkg/auth"
	"github.com/mediamind-ai/mediamind/pkg/config"
	"github.com/mediamind-ai/mediamind/pkg/database"
	"github.com/mediamind-ai/mediamind/pkg/encryption"
	"github.com/mediamind-ai/mediamind/pkg/foundation"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestApp(t *testing.T, db *gorm.DB, withKey bool, extra ...Option) *foundation.Application {
	t.Helper()
	settings := config.DefaultSettings()
	settings.App.Env = "testing"
	if withKey {
		settings.App.Key = encryption.FormatKey(testKey)
	}

	opts := []Option{
		WithInstance(foundation.ServiceSettings, &settings),
		WithInstance(foundation.ServiceLogger, zap.NewNop()),
	}
	if db != nil {
		opts = append(opts, WithInstance(foundation.ServiceDB, db))
	}
	opts = append(opts, extra...)
	app, err := NewApplication(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { database.SetConnection(nil) })
	return app
}

func newMockDB(t *testing.T) *database.MockDB {
	t.Helper()
	mockDB, err := database.NewMockDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mockDB.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return mockDB
}

func do(app http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func bearer(t *testing.T, app *foundation.Application) map[string]string {
	t.Helper()
	tokens, err := foundation.Resolve[*auth.Tokens](app.Container, foundation.ServiceTokens)
	require.NoError(t, err)
	token, err := tokens.Issue("editor", time.Minute)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestPages(t *testing.T) {
	app := newTestApp(t, nil, false)

	tests := []struct {
		name     string
		target   string
		status   int
		contains []string
	}{
		{"home", "/", http.StatusOK, []string{"Welcome to MediaMind AI", "Smart Content Curation", "Workflow Automation"}},
		{"about", "/about", http.StatusOK, []string{"About MediaMind AI", "integrated artificial intelligence platform", "Data Security"}},
		{"about trailing slash", "/about/", http.StatusOK, []string{"About MediaMind AI"}},
		{"about mixed case", "/About", http.StatusOK, []string{"About MediaMind AI"}},
		{"contact form", "/contact", http.StatusOK, []string{`action="/contact"`}},
		{"unknown page", "/does/not/exist", http.StatusNotFound, []string{"Page not found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(app, http.MethodGet, tt.target, "", nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			for _, s := range tt.contains {
				assert.Contains(t, rec.Body.String(), s)
			}
			assert.Contains(t, rec.Body.String(), "MediaMind AI. All rights reserved.")
		})
	}
}

func TestAPIDocs(t *testing.T) {
	app := newTestApp(t, nil, false)

	rec := do(app, http.MethodGet, "/api/docs", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	endpoints := body["endpoints"].(map[string]interface{})
	assert.Len(t, endpoints, 5)
	assert.Equal(t, "Create new content", endpoints["POST /api/content"])
	assert.Equal(t, map[string]interface{}{
		"type":        "Bearer Token",
		"description": "Include your API token in the Authorization header",
	}, body["authentication"])

	for _, rec := range []*httptest.ResponseRecorder{
		do(app, http.MethodGet, "/api/docs?format=html", "", nil),
		do(app, http.MethodGet, "/api/docs", "", map[string]string{"Accept": "text/html,application/xhtml+xml"}),
	} {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "MediaMind AI API</h1>")
		assert.Contains(t, rec.Body.String(), "<title>API Documentation</title>")
	}
}

func TestContact(t *testing.T) {
	t.Run("validation errors", func(t *testing.T) {
		app := newTestApp(t, nil, false)
		rec := do(app, http.MethodPost, "/contact", `{"email":"not-an-email","message":"short"}`, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, map[string]interface{}{
			"name":    "The name field is required.",
			"email":   "The email field must be a valid email address.",
			"message": "The message field must be at least 10 characters.",
		}, decode(t, rec)["errors"])
	})

	t.Run("form encoded", func(t *testing.T) {
		app := newTestApp(t, nil, false)
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("name=Ada&email=ada%40example.com&message=Hello+there+MediaMind"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decode(t, rec)["success"])
	})

	t.Run("stored when a database is connected", func(t *testing.T) {
		mockDB := newMockDB(t)
		app := newTestApp(t, mockDB.GormDB, false)
		mockDB.ExpectInsert("contact_messages", 1,
			sqlmock.AnyArg(), "ada@example.com", "Hello there MediaMind", "Ada", sqlmock.AnyArg())

		rec := do(app, http.MethodPost, "/contact", `{"name":"Ada","email":"ada@example.com","message":"Hello there MediaMind"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Thank you for your message. We will get back to you soon!", body["message"])
	})
}

func contentRows() *sqlmock.Rows {
	return database.Rows([]string{"id", "title", "body", "status", "author"},
		[]driver.Value{int64(3), "Launch", "We are live", "draft", "editor"})
}

func TestContentAPI(t *testing.T) {
	t.Run("requires a token", func(t *testing.T) {
		app := newTestApp(t, nil, true)
		rec := do(app, http.MethodGet, "/api/content", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "authorization missing", decode(t, rec)["error"])
	})

	t.Run("disabled without an application key", func(t *testing.T) {
		app := newTestApp(t, nil, false)
		rec := do(app, http.MethodGet, "/api/content", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unavailable without a database", func(t *testing.T) {
		app := newTestApp(t, nil, true)
		rec := do(app, http.MethodGet, "/api/content", "", bearer(t, app))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("index", func(t *testing.T) {
		mockDB := newMockDB(t)
		app := newTestApp(t, mockDB.GormDB, true)
		mockDB.ExpectAll("contents", contentRows())

		rec := do(app, http.MethodGet, "/api/content", "", bearer(t, app))
		assert.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].([]interface{})
		require.Len(t, data, 1)
		assert.Equal(t, "Launch", data[0].(map[string]interface{})["title"])
	})

	t.Run("store", func(t *testing.T) {
		mockDB := newMockDB(t)
		app := newTestApp(t, mockDB.GormDB, true)
		mockDB.ExpectInsert("contents", 7,
			"editor", "We are live", sqlmock.AnyArg(), "draft", "Launch", sqlmock.AnyArg())

		rec := do(app, http.MethodPost, "/api/content", `{"title":"Launch","body":"We are live"}`, bearer(t, app))
		assert.Equal(t, http.StatusCreated, rec.Code)
		data := decode(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, float64(7), data["id"])
		assert.Equal(t, "draft", data["status"])
	})

	t.Run("store validates", func(t *testing.T) {
		app := newTestApp(t, nil, true)
		rec := do(app, http.MethodPost, "/api/content", `{"title":"Launch","body":"x","status":"gone"}`, bearer(t, app))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "The selected status is invalid.", decode(t, rec)["errors"].(map[string]interface{})["status"])
	})

	t.Run("show", func(t *testing.T) {
		mockDB := newMockDB(t)
		app := newTestApp(t, mockDB.GormDB, true)
		mockDB.ExpectFind("contents", "id", int64(3), contentRows())
		mockDB.ExpectNotFound("contents", "id", int64(9))

		rec := do(app, http.MethodGet, "/api/content/3", "", bearer(t, app))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "We are live", decode(t, rec)["data"].(map[string]interface{})["body"])

		rec = do(app, http.MethodGet, "/api/content/9", "", bearer(t, app))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Content not found", decode(t, rec)["error"])

		rec = do(app, http.MethodGet, "/api/content/abc", "", bearer(t, app))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		mockDB := newMockDB(t)
		app := newTestApp(t, mockDB.GormDB, true)
		mockDB.ExpectFind("contents", "id", int64(3), contentRows())
		mockDB.ExpectUpdate("contents", "published", sqlmock.AnyArg(), int64(3))

		rec := do(app, http.MethodPut, "/api/content/3", `{"status":"published","title":"Launch"}`, bearer(t, app))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "published", decode(t, rec)["data"].(map[string]interface{})["status"])
	})

	t.Run("destroy", func(t *testing.T) {
		mockDB := newMockDB(t)
		app := newTestApp(t, mockDB.GormDB, true)
		mockDB.ExpectFind("contents", "id", int64(3), contentRows())
		mockDB.ExpectDelete("contents", "id", int64(3))

		rec := do(app, http.MethodDelete, "/api/content/3", "", bearer(t, app))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestProviders(t *testing.T) {
	app := newTestApp(t, nil, true)

	assert.True(t, app.IsBooted())
	assert.Len(t, app.Providers(), 5)
	assert.False(t, app.Bound(foundation.ServiceAudit))

	// the route provider needed the token issuer; the encrypter is built on demand
	assert.True(t, app.Resolved(foundation.ServiceTokens))
	assert.False(t, app.Resolved(foundation.ServiceEncrypter))
	enc, err := foundation.Resolve[*encryption.Encrypter](app.Container, foundation.ServiceEncrypter)
	require.NoError(t, err)
	assert.Equal(t, "aes-256-gcm", enc.Cipher())

	router, err := app.Router()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, r := range router.Routes() {
		names[r.Name] = true
	}
	for _, name := range []string{"api.docs", "api.content.index", "api.content.destroy", "home", "about", "contact.store", "fallback"} {
		assert.True(t, names[name], name)
	}
	routes := router.Routes()
	assert.Equal(t, "fallback", routes[len(routes)-1].Name)
}

func TestDatabaseConfig(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Database.Connection = "pgsql"
	settings.Database.Host = "db"
	settings.Logging.Level = "debug"

	cfg := DatabaseConfig(&settings)
	assert.Equal(t, "postgres", cfg.Driver())
	assert.Equal(t, "db", cfg.Host)
	assert.True(t, cfg.Debug)
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	auditor := audit.New(audit.NewLogger("MediaMind AI", &buf), nil, nil)

	mockDB := newMockDB(t)
	app := newTestApp(t, mockDB.GormDB, true, WithInstance(foundation.ServiceAudit, auditor))
	mockDB.ExpectFind("contents", "id", int64(3), contentRows())
	mockDB.ExpectDelete("contents", "id", int64(3))

	rec := do(app, http.MethodGet, "/api/content", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(app, http.MethodDelete, "/api/content/3", "", bearer(t, app))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "anonymous failed to authenticate with a bearer token: Invalid token")
	assert.Contains(t, lines[1], "editor successfully authenticated")
	assert.Contains(t, lines[2], `[subject@32473 content="3"] editor deleted content 3`)
}

func TestAuditServiceProvider(t *testing.T) {
	settings := config.DefaultSettings()
	settings.App.Env = "testing"
	settings.Audit.Enabled = true
	settings.Audit.Path = "storage/logs/audit.log"

	app, err := NewApplication(t.TempDir(),
		WithInstance(foundation.ServiceSettings, &settings),
		WithInstance(foundation.ServiceLogger, zap.NewNop()),
	)
	require.NoError(t, err)

	auditor, err := Auditor(app)
	require.NoError(t, err)
	require.NotNil(t, auditor)
	assert.Nil(t, auditor.Store)
	assert.Equal(t, "mediamind-ai", auditor.Logger.AppName())

	settings.Audit.Database = true
	_, err = NewApplication(t.TempDir(),
		WithInstance(foundation.ServiceSettings, &settings),
		WithInstance(foundation.ServiceLogger, zap.NewNop()),
	)
	assert.ErrorContains(t, err, "audit.database needs a database connection")
}

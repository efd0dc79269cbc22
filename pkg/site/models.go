package site

import (
	"gorm.io/gorm"

	"github.com/mediamind-ai/mediamind/pkg/database"
)

// Content statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// NewTestSchema is the tests table used to check the database wiring. A nil
// db uses the default connection.
func NewTestSchema(db *gorm.DB) *database.Schema {
	s := database.NewSchema("Test")
	s.Fillable = []string{"name"}
	s.Casts = map[string]string{"id": "int"}
	s.DB = db
	return s
}

// NewContentSchema is the contents table behind /api/content
func NewContentSchema(db *gorm.DB) *database.Schema {
	s := database.NewSchema("Content")
	s.Fillable = []string{"title", "body", "status"}
	s.Casts = map[string]string{"id": "int", "created_at": "datetime", "updated_at": "datetime"}
	s.DB = db
	return s
}

// NewContactMessageSchema stores contact form submissions
func NewContactMessageSchema(db *gorm.DB) *database.Schema {
	s := database.NewSchema("ContactMessage")
	s.Table = "contact_messages"
	s.Fillable = []string{"name", "email", "message"}
	s.Hidden = []string{"email"}
	s.Casts = map[string]string{"id": "int"}
	s.DB = db
	return s
}

// connected reports whether s has a connection to use
func connected(s *database.Schema) bool {
	return s != nil && (s.DB != nil || database.HasConnection())
}

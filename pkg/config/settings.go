package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AppSettings holds the app.* settings
type AppSettings struct {
	Name  string `yaml:"name" json:"name" validate:"required"`
	Env   string `yaml:"env" json:"env" validate:"required,oneof=local testing staging production"`
	Debug bool   `yaml:"debug" json:"debug"`
	URL   string `yaml:"url" json:"url" validate:"omitempty,url"`
	Key   string `yaml:"key" json:"-"`
	Host  string `yaml:"host" json:"host" validate:"required"`
	Port  int    `yaml:"port" json:"port" validate:"min=0,max=65535"`
}

// DatabaseSettings holds the database.* settings. An empty Connection
// means the application runs without a database.
type DatabaseSettings struct {
	Connection string `yaml:"connection" json:"connection" validate:"omitempty,oneof=mysql pgsql postgres sqlite"`
	Host       string `yaml:"host" json:"host"`
	Port       int    `yaml:"port" json:"port" validate:"min=0,max=65535"`
	Database   string `yaml:"database" json:"database"`
	Username   string `yaml:"username" json:"username"`
	Password   string `yaml:"password" json:"-"`
	Charset    string `yaml:"charset" json:"charset"`
	Path       string `yaml:"path" json:"path"`
}

// LogSettings holds the logging.* settings
type LogSettings struct {
	Level      string `yaml:"level" json:"level" validate:"required,oneof=debug info warn error"`
	Channel    string `yaml:"channel" json:"channel" validate:"required,oneof=console file"`
	Format     string `yaml:"format" json:"format" validate:"required,oneof=json console"`
	Path       string `yaml:"path" json:"path" validate:"required_if=Channel file"`
	MaxSize    int    `yaml:"max_size" json:"max_size" validate:"omitempty,min=1,max=100"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups" validate:"omitempty,min=1,max=10"`
	MaxAge     int    `yaml:"max_age" json:"max_age" validate:"omitempty,min=1,max=365"`
}

// ViewSettings holds the view.* settings
type ViewSettings struct {
	Paths     []string `yaml:"paths" json:"paths"`
	Compiled  string   `yaml:"compiled" json:"compiled"`
	CacheSize int      `yaml:"cache_size" json:"cache_size" validate:"min=0"`
}

// AuditSettings holds the audit.* settings. An empty Path writes the
// audit trail to stdout.
type AuditSettings struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Path     string `yaml:"path" json:"path"`
	Database bool   `yaml:"database" json:"database"`
}

// Settings is the typed view of the repository used to wire the application
type Settings struct {
	App      AppSettings      `yaml:"app" json:"app"`
	Database DatabaseSettings `yaml:"database" json:"database"`
	Logging  LogSettings      `yaml:"logging" json:"logging"`
	View     ViewSettings     `yaml:"view" json:"view"`
	Audit    AuditSettings    `yaml:"audit" json:"audit"`
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		App: AppSettings{
			Name: "MediaMind AI",
			Env:  "production",
			URL:  "http://localhost",
			Host: "0.0.0.0",
			Port: 8000,
		},
		Database: DatabaseSettings{
			Charset: "utf8mb4",
		},
		Logging: LogSettings{
			Level:      "info",
			Channel:    "console",
			Format:     "console",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
		View: ViewSettings{
			Compiled:  "storage/framework/views",
			CacheSize: 128,
		},
	}
}

// Settings decodes app, database, logging, view and audit on top of the defaults
// and validates the result
func (r *Repository) Settings() (*Settings, error) {
	s := DefaultSettings()
	for key, out := range map[string]interface{}{
		"app":      &s.App,
		"database": &s.Database,
		"logging":  &s.Logging,
		"view":     &s.View,
		"audit":    &s.Audit,
	} {
		if err := r.Decode(key, out); err != nil {
			return nil, err
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every field against its validation tags
func (s *Settings) Validate() error {
	validate := validator.New()

	err := validate.Struct(s)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var messages []string
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf("Field: %s, Tag: %s", fieldErr.Namespace(), fieldErr.Tag()))
			}
			return fmt.Errorf("invalid configuration: %v", messages)
		}
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Attributes returns the effective settings with their sources
func (r *Repository) Attributes() ([]Attribute, error) {
	s, err := r.Settings()
	if err != nil {
		return nil, err
	}

	key := "(not set)"
	if s.App.Key != "" {
		key = "(set)"
	}

	attr := func(name, value string) Attribute {
		return Attribute{Name: name, Value: value, Source: r.Source(name)}
	}
	return []Attribute{
		attr("app.name", s.App.Name),
		attr("app.env", s.App.Env),
		attr("app.debug", strconv.FormatBool(s.App.Debug)),
		attr("app.url", s.App.URL),
		attr("app.key", key),
		attr("app.host", s.App.Host),
		attr("app.port", strconv.Itoa(s.App.Port)),
		attr("database.connection", s.Database.Connection),
		attr("database.host", s.Database.Host),
		attr("database.port", strconv.Itoa(s.Database.Port)),
		attr("database.database", s.Database.Database),
		attr("database.username", s.Database.Username),
		attr("database.path", s.Database.Path),
		attr("logging.level", s.Logging.Level),
		attr("logging.channel", s.Logging.Channel),
		attr("logging.format", s.Logging.Format),
		attr("logging.path", s.Logging.Path),
		attr("view.compiled", s.View.Compiled),
		attr("view.cache_size", strconv.Itoa(s.View.CacheSize)),
		attr("audit.enabled", strconv.FormatBool(s.Audit.Enabled)),
		attr("audit.path", s.Audit.Path),
		attr("audit.database", strconv.FormatBool(s.Audit.Database)),
	}, nil
}

// FormatText returns a text representation of the configuration
func (r *Repository) FormatText() (string, error) {
	attrs, err := r.Attributes()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config paths: %s\n\n", strings.Join(r.Paths(), ", ")))
	sb.WriteString(fmt.Sprintf("%-24s %-36s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-24s %-36s %s\n", "----", "-----", "------"))
	for _, attr := range attrs {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-24s %-36s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String(), nil
}

// FormatJSON returns a JSON representation of the configuration
func (r *Repository) FormatJSON() (string, error) {
	attrs, err := r.Attributes()
	if err != nil {
		return "", err
	}
	result := map[string]interface{}{
		"config_paths": r.Paths(),
		"attributes":   attrs,
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

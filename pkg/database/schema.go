package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrModelNotFound is returned by Find when no row has the key
	ErrModelNotFound = errors.New("model not found")
	// ErrInvalidOperator is returned by Where for operators outside the allowed set
	ErrInvalidOperator = errors.New("invalid comparison operator")
	// ErrInvalidIdentifier is returned for table or column names that are not plain identifiers
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var operators = map[string]bool{
	"=": true, "!=": true, "<>": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"like": true, "not like": true,
}

// now is replaced in tests
var now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }

// Schema describes the table behind a model
type Schema struct {
	Table      string
	PrimaryKey string
	// Timestamps maintains created_at and updated_at on save
	Timestamps bool
	// Fillable limits Fill to these attributes. When empty every attribute
	// not starting with an underscore is fillable.
	Fillable []string
	// Hidden attributes are left out of ToMap and JSON
	Hidden []string
	// Casts maps attributes to int, float, bool, string, json or datetime
	Casts map[string]string
	// DB overrides the default connection
	DB *gorm.DB
}

// NewSchema returns a schema for the model name, stored in the table
// lower(name)+"s" with an id primary key and timestamps
func NewSchema(name string) *Schema {
	return &Schema{
		Table:      strings.ToLower(name) + "s",
		PrimaryKey: "id",
		Timestamps: true,
	}
}

func (s *Schema) conn(ctx context.Context) (*gorm.DB, error) {
	if !identifier.MatchString(s.Table) {
		return nil, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, s.Table)
	}
	db := s.DB
	if db == nil {
		var err error
		if db, err = Connection(); err != nil {
			return nil, err
		}
	}
	return db.WithContext(ctx), nil
}

func (s *Schema) primaryKey() string {
	if s.PrimaryKey == "" {
		return "id"
	}
	return s.PrimaryKey
}

// New returns an unsaved model filled with attrs
func (s *Schema) New(attrs map[string]interface{}) *Model {
	m := &Model{
		schema:     s,
		attributes: make(map[string]interface{}),
		original:   make(map[string]interface{}),
	}
	return m.Fill(attrs)
}

// All returns every row of the table
func (s *Schema) All(ctx context.Context) ([]*Model, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return s.hydrate(db.Table(s.Table).Rows())
}

// Find returns the row whose primary key is id
func (s *Schema) Find(ctx context.Context, id interface{}) (*Model, error) {
	models, err := s.Where(ctx, s.primaryKey(), "=", id)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: %s %v", ErrModelNotFound, s.Table, id)
	}
	return models[0], nil
}

// Where returns the rows where column compares to value with operator
func (s *Schema) Where(ctx context.Context, column, operator string, value interface{}) ([]*Model, error) {
	operator = strings.ToLower(strings.TrimSpace(operator))
	if !operators[operator] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, operator)
	}
	if !identifier.MatchString(column) {
		return nil, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, column)
	}

	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	cond := clause.Expr{
		SQL:  "? " + strings.ToUpper(operator) + " ?",
		Vars: []interface{}{clause.Column{Name: column}, value},
	}
	return s.hydrate(db.Table(s.Table).Where(cond).Rows())
}

// WhereEq is Where with the = operator
func (s *Schema) WhereEq(ctx context.Context, column string, value interface{}) ([]*Model, error) {
	return s.Where(ctx, column, "=", value)
}

// Create fills a new model with attrs and saves it
func (s *Schema) Create(ctx context.Context, attrs map[string]interface{}) (*Model, error) {
	m := s.New(attrs)
	if err := m.Save(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

type rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

func (s *Schema) hydrate(r rows, err error) ([]*Model, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.Table, err)
	}
	defer r.Close()

	columns, err := r.Columns()
	if err != nil {
		return nil, err
	}

	var models []*Model
	for r.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := r.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.Table, err)
		}

		m := &Model{
			schema:     s,
			attributes: make(map[string]interface{}, len(columns)),
			exists:     true,
		}
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			m.attributes[col] = values[i]
		}
		m.syncOriginal()
		models = append(models, m)
	}
	return models, r.Err()
}

func (s *Schema) quoted(db *gorm.DB, names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = db.Statement.Quote(name)
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

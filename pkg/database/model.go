package database

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Model is a row of a schema's table held as attributes
type Model struct {
	schema     *Schema
	attributes map[string]interface{}
	original   map[string]interface{}
	exists     bool
}

func (m *Model) Schema() *Schema { return m.schema }

// Exists reports whether the model is persisted
func (m *Model) Exists() bool { return m.exists }

// Fill sets the fillable attributes of attrs
func (m *Model) Fill(attrs map[string]interface{}) *Model {
	for k, v := range attrs {
		if m.isFillable(k) {
			m.attributes[k] = v
		}
	}
	return m
}

func (m *Model) isFillable(key string) bool {
	if len(m.schema.Fillable) == 0 {
		return !strings.HasPrefix(key, "_")
	}
	for _, f := range m.schema.Fillable {
		if f == key {
			return true
		}
	}
	return false
}

// Set sets an attribute regardless of the fillable rules
func (m *Model) Set(key string, value interface{}) *Model {
	m.attributes[key] = value
	return m
}

// Get returns an attribute with its cast applied, or nil
func (m *Model) Get(key string) interface{} {
	v, ok := m.attributes[key]
	if !ok {
		return nil
	}
	return m.cast(key, v)
}

// Unset removes an attribute
func (m *Model) Unset(key string) {
	delete(m.attributes, key)
}

// Key returns the primary key value
func (m *Model) Key() interface{} {
	return m.Get(m.schema.primaryKey())
}

// Attributes returns a copy of the raw attributes
func (m *Model) Attributes() map[string]interface{} {
	return copyMap(m.attributes)
}

// Original returns the attributes as last loaded or saved
func (m *Model) Original() map[string]interface{} {
	return copyMap(m.original)
}

// Dirty returns the attributes changed since the last load or save
func (m *Model) Dirty() map[string]interface{} {
	dirty := make(map[string]interface{})
	for k, v := range m.attributes {
		orig, ok := m.original[k]
		if !ok || !reflect.DeepEqual(orig, v) {
			dirty[k] = v
		}
	}
	return dirty
}

// IsDirty reports whether any of keys, or any attribute when keys is
// empty, has changed
func (m *Model) IsDirty(keys ...string) bool {
	dirty := m.Dirty()
	if len(keys) == 0 {
		return len(dirty) > 0
	}
	for _, k := range keys {
		if _, ok := dirty[k]; ok {
			return true
		}
	}
	return false
}

func (m *Model) syncOriginal() {
	m.original = copyMap(m.attributes)
}

// Save inserts a new model or updates the dirty attributes of a
// persisted one
func (m *Model) Save(ctx context.Context) error {
	if m.exists {
		return m.performUpdate(ctx)
	}
	return m.performInsert(ctx)
}

func (m *Model) performInsert(ctx context.Context) error {
	db, err := m.schema.conn(ctx)
	if err != nil {
		return err
	}

	attrs := copyMap(m.attributes)
	if m.schema.Timestamps {
		t := now()
		attrs["created_at"] = t
		attrs["updated_at"] = t
	}
	columns, values, err := m.columnValues(attrs)
	if err != nil {
		return err
	}

	pk := m.schema.primaryKey()
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		db.Statement.Quote(m.schema.Table),
		strings.Join(m.schema.quoted(db, columns), ", "),
		placeholders(len(columns)))

	var id interface{}
	if db.Dialector.Name() == "postgres" {
		if err := db.Raw(sql+" RETURNING "+db.Statement.Quote(pk), values...).Row().Scan(&id); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", m.schema.Table, err)
		}
	} else {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		res, err := sqlDB.ExecContext(ctx, sql, values...)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", m.schema.Table, err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read key of %s: %w", m.schema.Table, err)
		}
	}

	if _, ok := attrs[pk]; !ok {
		attrs[pk] = id
	}
	m.attributes = attrs
	m.exists = true
	m.syncOriginal()
	return nil
}

func (m *Model) performUpdate(ctx context.Context) error {
	dirty := m.Dirty()
	if len(dirty) == 0 {
		return nil
	}

	db, err := m.schema.conn(ctx)
	if err != nil {
		return err
	}

	if m.schema.Timestamps {
		t := now()
		dirty["updated_at"] = t
		m.attributes["updated_at"] = t
	}
	columns, values, err := m.columnValues(dirty)
	if err != nil {
		return err
	}

	sets := m.schema.quoted(db, columns)
	for i := range sets {
		sets[i] += " = ?"
	}
	pk := m.schema.primaryKey()
	key, ok := m.original[pk]
	if !ok {
		key = m.attributes[pk]
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		db.Statement.Quote(m.schema.Table),
		strings.Join(sets, ", "),
		db.Statement.Quote(pk))

	if err := db.Exec(sql, append(values, key)...).Error; err != nil {
		return fmt.Errorf("failed to update %s: %w", m.schema.Table, err)
	}
	m.syncOriginal()
	return nil
}

// Update fills attrs and saves. It returns false without saving when the
// model is not persisted.
func (m *Model) Update(ctx context.Context, attrs map[string]interface{}) (bool, error) {
	if !m.exists {
		return false, nil
	}
	m.Fill(attrs)
	if err := m.Save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the row. It returns false when the model is not persisted.
func (m *Model) Delete(ctx context.Context) (bool, error) {
	if !m.exists {
		return false, nil
	}
	db, err := m.schema.conn(ctx)
	if err != nil {
		return false, err
	}

	pk := m.schema.primaryKey()
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		db.Statement.Quote(m.schema.Table), db.Statement.Quote(pk))
	if err := db.Exec(sql, m.attributes[pk]).Error; err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", m.schema.Table, err)
	}
	m.exists = false
	return true, nil
}

// columnValues orders attrs by column name and encodes json casts
func (m *Model) columnValues(attrs map[string]interface{}) ([]string, []interface{}, error) {
	columns := sortedKeys(attrs)
	values := make([]interface{}, len(columns))
	for i, col := range columns {
		if !identifier.MatchString(col) {
			return nil, nil, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, col)
		}
		v := attrs[col]
		if m.schema.Casts[col] == "json" {
			switch v.(type) {
			case nil, string, []byte:
			default:
				b, err := json.Marshal(v)
				if err != nil {
					return nil, nil, fmt.Errorf("failed to encode %s: %w", col, err)
				}
				v = string(b)
			}
		}
		values[i] = v
	}
	return columns, values, nil
}

// ToMap returns the cast attributes without hidden ones
func (m *Model) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(m.attributes))
	for k, v := range m.attributes {
		out[k] = m.cast(k, v)
	}
	for _, h := range m.schema.Hidden {
		delete(out, h)
	}
	return out
}

func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

func (m *Model) String() string {
	b, err := m.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// cast converts v to the type configured for key. Values that do not
// convert are returned unchanged.
func (m *Model) cast(key string, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch m.schema.Casts[key] {
	case "int", "integer":
		if i, ok := toInt(v); ok {
			return i
		}
	case "float", "double":
		if f, ok := toFloat(v); ok {
			return f
		}
	case "bool", "boolean":
		if b, ok := toBool(v); ok {
			return b
		}
	case "string":
		return toString(v)
	case "json", "array":
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case []byte:
			s = string(t)
		default:
			return v
		}
		var out interface{}
		if err := json.Unmarshal([]byte(s), &out); err == nil {
			return out
		}
	case "datetime":
		if t, ok := toTime(v); ok {
			return t
		}
	}
	return v
}

func toInt(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	case float32:
		return int64(t), true
	case float64:
		return int64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string, []byte:
		i, err := strconv.ParseInt(strings.TrimSpace(toString(t)), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case string, []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(toString(t)), 64)
		return f, err == nil
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func toBool(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string, []byte:
		b, err := strconv.ParseBool(strings.TrimSpace(toString(t)))
		return b, err == nil
	}
	if i, ok := toInt(v); ok {
		return i != 0, true
	}
	return false, false
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(v)
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string, []byte:
		s := strings.TrimSpace(toString(t))
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

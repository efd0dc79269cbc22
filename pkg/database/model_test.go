package database

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupMock(t *testing.T) (*MockDB, *Schema) {
	t.Helper()
	mockDB, err := NewMockDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	prev := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = prev })

	schema := NewSchema("Test")
	schema.DB = mockDB.GormDB
	return mockDB, schema
}

func TestNewSchema(t *testing.T) {
	s := NewSchema("ContactMessage")
	assert.Equal(t, "contactmessages", s.Table)
	assert.Equal(t, "id", s.PrimaryKey)
	assert.True(t, s.Timestamps)
}

func TestSchema_All(t *testing.T) {
	mockDB, schema := setupMock(t)
	mockDB.ExpectAll("tests", Rows([]string{"id", "name"},
		[]driver.Value{int64(1), "first"},
		[]driver.Value{int64(2), []byte("second")},
	))

	models, err := schema.All(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "first", models[0].Get("name"))
	assert.Equal(t, "second", models[1].Get("name"))
	assert.True(t, models[1].Exists())
	assert.False(t, models[1].IsDirty())
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSchema_Find(t *testing.T) {
	mockDB, schema := setupMock(t)
	mockDB.ExpectFind("tests", "id", 1, Rows([]string{"id", "name"}, []driver.Value{int64(1), "found"}))
	mockDB.ExpectNotFound("tests", "id", 99)

	m, err := schema.Find(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.Key())
	assert.Equal(t, "found", m.Get("name"))

	_, err = schema.Find(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrModelNotFound))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSchema_Where(t *testing.T) {
	mockDB, schema := setupMock(t)
	mockDB.Mock.ExpectQuery(`SELECT \* FROM "tests" WHERE "name" LIKE \$1`).
		WithArgs("a%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(3), "alpha"))

	models, err := schema.Where(context.Background(), "name", "like", "a%")
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "alpha", models[0].Get("name"))

	_, err = schema.Where(context.Background(), "name", "; DROP", "x")
	assert.True(t, errors.Is(err, ErrInvalidOperator))

	_, err = schema.WhereEq(context.Background(), "name; --", "x")
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSchema_Create(t *testing.T) {
	mockDB, schema := setupMock(t)
	mockDB.ExpectInsert("tests", int64(7), fixedNow, "created", fixedNow)

	m, err := schema.Create(context.Background(), map[string]interface{}{"name": "created", "_token": "skip"})
	require.NoError(t, err)
	assert.True(t, m.Exists())
	assert.Equal(t, int64(7), m.Key())
	assert.Nil(t, m.Get("_token"))
	assert.Equal(t, fixedNow, m.Get("created_at"))
	assert.False(t, m.IsDirty())
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestModel_SaveUpdatesDirtyColumns(t *testing.T) {
	mockDB, schema := setupMock(t)
	mockDB.ExpectFind("tests", "id", 1, Rows([]string{"id", "name", "created_at", "updated_at"},
		[]driver.Value{int64(1), "old", fixedNow, fixedNow}))
	mockDB.Mock.ExpectExec(`UPDATE "tests" SET "name" = \$1, "updated_at" = \$2 WHERE "id" = \$3`).
		WithArgs("new", fixedNow, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m, err := schema.Find(context.Background(), 1)
	require.NoError(t, err)

	// nothing dirty, no query
	require.NoError(t, m.Save(context.Background()))

	ok, err := m.Update(context.Background(), map[string]interface{}{"name": "new"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, m.IsDirty())
	assert.Equal(t, "new", m.Original()["name"])
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestModel_Delete(t *testing.T) {
	mockDB, schema := setupMock(t)
	mockDB.ExpectFind("tests", "id", 5, Rows([]string{"id"}, []driver.Value{int64(5)}))
	mockDB.ExpectDelete("tests", "id", int64(5))

	m, err := schema.Find(context.Background(), 5)
	require.NoError(t, err)

	ok, err := m.Delete(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, m.Exists())

	ok, err = m.Delete(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestModel_NotPersisted(t *testing.T) {
	schema := NewSchema("Test")
	m := schema.New(map[string]interface{}{"name": "x"})

	ok, err := m.Update(context.Background(), map[string]interface{}{"name": "y"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "x", m.Get("name"))

	ok, err = m.Delete(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestModel_NoConnection(t *testing.T) {
	SetConnection(nil)
	_, err := Connection()
	assert.True(t, errors.Is(err, ErrNoConnection))
	assert.Equal(t, "Database connection has not been established.", err.Error())

	_, err = NewSchema("Test").All(context.Background())
	assert.True(t, errors.Is(err, ErrNoConnection))

	err = NewSchema("Test").New(map[string]interface{}{"name": "x"}).Save(context.Background())
	assert.True(t, errors.Is(err, ErrNoConnection))
}

func TestModel_DefaultConnection(t *testing.T) {
	mockDB, _ := setupMock(t)
	SetConnection(mockDB.GormDB)
	t.Cleanup(func() { SetConnection(nil) })

	mockDB.ExpectAll("tests", Rows([]string{"id"}))
	models, err := NewSchema("Test").All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
	assert.True(t, HasConnection())
}

func TestModel_Fill(t *testing.T) {
	open := NewSchema("Test").New(map[string]interface{}{"name": "a", "_method": "PUT"})
	assert.Equal(t, map[string]interface{}{"name": "a"}, open.Attributes())

	guarded := &Schema{Table: "contents", Fillable: []string{"title"}}
	m := guarded.New(map[string]interface{}{"title": "t", "status": "published"})
	assert.Equal(t, map[string]interface{}{"title": "t"}, m.Attributes())

	m.Set("status", "draft")
	assert.Equal(t, "draft", m.Get("status"))
	assert.True(t, m.IsDirty("status"))
	assert.False(t, m.IsDirty("missing"))

	m.Unset("status")
	assert.Nil(t, m.Get("status"))
}

func TestModel_Casts(t *testing.T) {
	s := &Schema{
		Table: "things",
		Casts: map[string]string{
			"count":   "int",
			"ratio":   "float",
			"active":  "bool",
			"code":    "string",
			"meta":    "json",
			"seen_at": "datetime",
		},
	}
	m := s.New(map[string]interface{}{
		"count":   "42",
		"ratio":   "0.5",
		"active":  int64(1),
		"code":    123,
		"meta":    `{"a":1}`,
		"seen_at": "2024-05-01 12:00:00",
		"raw":     "left",
	})

	assert.Equal(t, int64(42), m.Get("count"))
	assert.Equal(t, 0.5, m.Get("ratio"))
	assert.Equal(t, true, m.Get("active"))
	assert.Equal(t, "123", m.Get("code"))
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, m.Get("meta"))
	assert.Equal(t, fixedNow, m.Get("seen_at"))
	assert.Equal(t, "left", m.Get("raw"))
	assert.Nil(t, m.Get("missing"))

	m.Set("count", "not a number")
	assert.Equal(t, "not a number", m.Get("count"))
}

func TestModel_JSONEncodingOnSave(t *testing.T) {
	s := &Schema{Table: "things", Casts: map[string]string{"meta": "json"}}
	m := s.New(map[string]interface{}{"meta": map[string]int{"a": 1}})
	columns, values, err := m.columnValues(m.Attributes())
	require.NoError(t, err)
	assert.Equal(t, []string{"meta"}, columns)
	assert.Equal(t, []interface{}{`{"a":1}`}, values)
}

func TestModel_ToMapAndJSON(t *testing.T) {
	s := &Schema{Table: "users", Hidden: []string{"password"}, Casts: map[string]string{"id": "int"}}
	m := s.New(map[string]interface{}{"id": "3", "name": "ada", "password": "secret"})

	assert.Equal(t, map[string]interface{}{"id": int64(3), "name": "ada"}, m.ToMap())

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(m.String()), &decoded))
	assert.Equal(t, map[string]interface{}{"id": float64(3), "name": "ada"}, decoded)
}

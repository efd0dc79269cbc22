package audit

import (
	"bytes"
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediamind-ai/mediamind/pkg/database"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, err := database.NewMockDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mockDB.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return NewStore(mockDB.GormDB), mockDB.Mock
}

func TestStoreSave(t *testing.T) {
	store, mock := newMockStore(t)

	event := ContentEvent{
		Subject:   "editor",
		ClientIP:  "10.0.0.1",
		Operation: OperationCreate,
		ContentID: "7",
		Success:   true,
	}

	mock.ExpectExec(`INSERT INTO audit_messages`).
		WithArgs(
			FacilityAuthPriv,    // facility
			int(SeverityNotice), // severity
			sqlmock.AnyArg(),    // timestamp
			sqlmock.AnyArg(),    // hostname
			"mediamind",         // appname
			sqlmock.AnyArg(),    // procid
			"content",           // msgid
			sqlmock.AnyArg(),    // sdata (JSON)
			"editor created content 7",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Save(context.Background(), "mediamind", event))
}

func TestStoreSaveNil(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Save(context.Background(), "mediamind", ContactEvent{}))
}

func TestAuditorPersists(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO audit_messages`).
		WithArgs(FacilityAuthPriv, int(SeverityWarning), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"mediamind-ai", sqlmock.AnyArg(), "authn", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	var buf bytes.Buffer
	a := New(newTestLogger(&buf), store, nil)
	a.Record(context.Background(), AuthenticateEvent{ClientIP: "10.0.0.1", ErrorMessage: "Invalid token"})
	assert.Contains(t, buf.String(), "failed to authenticate")
}

func TestStoreRecent(t *testing.T) {
	store, mock := newMockStore(t)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "audit_messages" ORDER BY timestamp DESC LIMIT`).
		WillReturnRows(database.Rows(
			[]string{"facility", "severity", "timestamp", "hostname", "appname", "procid", "msgid", "sdata", "message"},
			[]driver.Value{FacilityUser, int(SeverityInfo), ts, "web-1", "mediamind", "42", "contact",
				`{"subject@32473":{"email":"ada@example.com"}}`, "contact message from ada@example.com stored"},
		))

	messages, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "contact", messages[0].Msgid)
	assert.Equal(t, ts, messages[0].Timestamp)
	assert.Equal(t, map[string]any{"email": "ada@example.com"}, messages[0].Sdata["subject@32473"])
}

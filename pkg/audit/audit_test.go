package audit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	l := NewLogger("MediaMind AI", buf)
	l.hostname = "web-1"
	l.pid = 42
	l.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return l
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	err := logger.Log(ContentEvent{
		Subject:   "editor",
		ClientIP:  "192.168.1.1",
		Operation: OperationCreate,
		ContentID: "7",
		Success:   true,
	})
	require.NoError(t, err)

	want := `<85>1 2024-05-01T12:00:00.000Z web-1 mediamind-ai 42 content ` +
		`[action@32473 operation="create" result="success"]` +
		`[auth@32473 user="editor"]` +
		`[client@32473 ip="192.168.1.1"]` +
		`[subject@32473 content="7"] editor created content 7` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestEscapeSDValue(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\]d"`, escapeSDValue(`a"b\c]d`))
	assert.Equal(t, "", formatStructuredData(nil))
}

func TestSyslogName(t *testing.T) {
	assert.Equal(t, "mediamind-ai", syslogName(" MediaMind  AI "))
	assert.Equal(t, "-", syslogName(""))
}

func TestAuthenticateEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   AuthenticateEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name:    "success",
			event:   AuthenticateEvent{Subject: "editor", ClientIP: "10.0.0.1", Success: true},
			wantMsg: "editor successfully authenticated with a bearer token",
			wantSev: SeverityInfo,
		},
		{
			name:    "failure",
			event:   AuthenticateEvent{ClientIP: "10.0.0.1", ErrorMessage: "Invalid token"},
			wantMsg: "anonymous failed to authenticate with a bearer token: Invalid token",
			wantSev: SeverityWarning,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "authn", tt.event.MessageID())
			assert.Equal(t, tt.wantMsg, tt.event.Message())
			assert.Equal(t, tt.wantSev, tt.event.Severity())
			assert.Equal(t, FacilityAuthPriv, tt.event.Facility())

			sd := tt.event.StructuredData()
			assert.Equal(t, "bearer", sd[SDIDAuth]["authenticator"])
			assert.Equal(t, "10.0.0.1", sd[SDIDClient]["ip"])
			_, hasUser := sd[SDIDAuth]["user"]
			assert.Equal(t, tt.event.Subject != "", hasUser)
		})
	}
}

func TestContentEvent(t *testing.T) {
	e := ContentEvent{Subject: "editor", Operation: OperationDelete, ContentID: "3", ErrorMessage: "not found"}
	assert.Equal(t, "editor tried to delete content 3: not found", e.Message())
	assert.Equal(t, SeverityWarning, e.Severity())
	assert.Equal(t, "failure", e.StructuredData()[SDIDAction]["result"])

	e = ContentEvent{Subject: "editor", Operation: OperationUpdate, ContentID: "3", Success: true}
	assert.Equal(t, "editor updated content 3", e.Message())
	assert.Equal(t, SeverityNotice, e.Severity())

	e = ContentEvent{Subject: "editor", Operation: OperationCreate}
	assert.Equal(t, "editor tried to create content", e.Message())
	_, ok := e.StructuredData()[SDIDSubject]
	assert.False(t, ok)
}

func TestContactEvent(t *testing.T) {
	e := ContactEvent{Email: "ada@example.com", ClientIP: "10.0.0.2"}
	assert.Equal(t, "contact message from ada@example.com received", e.Message())
	e.Stored = true
	assert.Equal(t, "contact message from ada@example.com stored", e.Message())
	assert.Equal(t, FacilityUser, e.Facility())
	assert.Equal(t, "ada@example.com", e.StructuredData()[SDIDSubject]["email"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAuditor(t *testing.T) {
	var nilAuditor *Auditor
	nilAuditor.Record(context.Background(), ContactEvent{Email: "a@b.c"})

	var buf bytes.Buffer
	a := New(newTestLogger(&buf), nil, nil)
	a.Record(context.Background(), ContactEvent{Email: "a@b.c"})
	assert.True(t, strings.Contains(buf.String(), " contact "))

	core, logs := observer.New(zap.WarnLevel)
	a = New(NewLogger("mediamind", failingWriter{}), nil, zap.New(core))
	a.Record(context.Background(), ContactEvent{Email: "a@b.c"})
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "audit: failed to write event", logs.All()[0].Message)
}

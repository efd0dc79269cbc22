package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Structured data IDs (RFC5424). 32473 is the example enterprise number
// reserved by RFC 5612.
const (
	PEN         = 32473
	SDIDAuth    = "auth@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDClient  = "client@32473"
)

// Syslog facility constants
const (
	FacilityUser     = 1  // LOG_USER - user-level messages
	FacilityAuthPriv = 10 // LOG_AUTHPRIV - security/authorization messages (private)
)

// Severity levels matching syslog (RFC5424)
type Severity int

const (
	SeverityEmergency Severity = iota // 0
	SeverityAlert                     // 1
	SeverityCritical                  // 2
	SeverityError                     // 3
	SeverityWarning                   // 4
	SeverityNotice                    // 5
	SeverityInfo                      // 6
	SeverityDebug                     // 7
)

// Event represents an audit event
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Logger writes events in RFC5424 syslog format
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	hostname string
	appName  string
	pid      int
	now      func() time.Time
}

// NewLogger creates a logger writing to w as appName
func NewLogger(appName string, w io.Writer) *Logger {
	hostname, _ := os.Hostname()
	return &Logger{
		writer:   w,
		hostname: hostname,
		appName:  syslogName(appName),
		pid:      os.Getpid(),
		now:      time.Now,
	}
}

// AppName is the APP-NAME field of every line
func (l *Logger) AppName() string { return l.appName }

// Log writes an audit event
// Format: <PRI>VERSION TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (l *Logger) Log(event Event) error {
	pri := event.Facility()*8 + int(event.Severity())
	timestamp := l.now().UTC().Format("2006-01-02T15:04:05.000Z")

	sd := formatStructuredData(event.StructuredData())
	if sd == "" {
		sd = "-"
	}
	hostname := l.hostname
	if hostname == "" {
		hostname = "-"
	}

	line := fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s\n",
		pri,
		timestamp,
		hostname,
		l.appName,
		l.pid,
		event.MessageID(),
		sd,
		event.Message(),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(l.writer, line)
	return err
}

// syslogName turns an application name into an APP-NAME without spaces
func syslogName(name string) string {
	name = strings.ToLower(strings.Join(strings.Fields(name), "-"))
	if name == "" {
		return "-"
	}
	return name
}

// formatStructuredData formats sd according to RFC5424, with SD-IDs and
// parameters in sorted order
// Format: [sdid param1="value1" param2="value2"][sdid2 ...]
func formatStructuredData(sd map[string]map[string]string) string {
	if len(sd) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, sdid := range sortedKeys(sd) {
		params := sd[sdid]
		sb.WriteString("[" + sdid)
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(" " + k + "=" + escapeSDValue(params[k]))
		}
		sb.WriteString("]")
	}
	return sb.String()
}

func sortedKeys(m map[string]map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// escapeSDValue escapes special characters in structured data values per RFC5424
func escapeSDValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "]", "\\]")
	return "\"" + value + "\""
}

// Auditor sends events to the syslog writer and, when set, the store.
// A nil Auditor discards events.
type Auditor struct {
	Logger *Logger
	Store  *Store
	// Errors receives failures to write or persist an event
	Errors *zap.Logger
}

// New returns an auditor writing to logger and, when store is not nil,
// persisting to store
func New(logger *Logger, store *Store, errs *zap.Logger) *Auditor {
	if errs == nil {
		errs = zap.NewNop()
	}
	return &Auditor{Logger: logger, Store: store, Errors: errs}
}

// Record writes event. Failures are reported to the Errors logger and
// never returned to the caller.
func (a *Auditor) Record(ctx context.Context, event Event) {
	if a == nil {
		return
	}
	if a.Logger != nil {
		if err := a.Logger.Log(event); err != nil {
			a.Errors.Warn("audit: failed to write event", zap.String("msgid", event.MessageID()), zap.Error(err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Save(ctx, a.appName(), event); err != nil {
			a.Errors.Warn("audit: failed to save event", zap.String("msgid", event.MessageID()), zap.Error(err))
		}
	}
}

func (a *Auditor) appName() string {
	if a.Logger != nil {
		return a.Logger.AppName()
	}
	return "-"
}

package audit

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Store persists events to the audit_messages table
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Message is a persisted audit event
type Message struct {
	Facility  int            `json:"facility"`
	Severity  int            `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Hostname  string         `json:"hostname"`
	Appname   string         `json:"appname"`
	Procid    string         `json:"procid"`
	Msgid     string         `json:"msgid"`
	Sdata     map[string]any `json:"sdata"`
	Message   string         `json:"message"`
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Save persists event as written by appName
func (s *Store) Save(ctx context.Context, appName string, event Event) error {
	if s == nil || s.db == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sdata, err := json.Marshal(event.StructuredData())
	if err != nil {
		return err
	}
	hostname, _ := os.Hostname()

	return s.db.WithContext(ctx).Exec(`
		INSERT INTO audit_messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Facility(),
		int(event.Severity()),
		s.now().UTC(),
		hostname,
		appName,
		strconv.Itoa(os.Getpid()),
		event.MessageID(),
		string(sdata),
		event.Message(),
	).Error
}

// Recent returns the latest limit messages, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Message, error) {
	type row struct {
		Facility  int
		Severity  int
		Timestamp time.Time
		Hostname  string
		Appname   string
		Procid    string
		Msgid     string
		Sdata     string
		Message   string
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Table("audit_messages").
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(rows))
	for _, r := range rows {
		m := Message{
			Facility:  r.Facility,
			Severity:  r.Severity,
			Timestamp: r.Timestamp,
			Hostname:  r.Hostname,
			Appname:   r.Appname,
			Procid:    r.Procid,
			Msgid:     r.Msgid,
			Message:   r.Message,
		}
		if r.Sdata != "" {
			if err := json.Unmarshal([]byte(r.Sdata), &m.Sdata); err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, nil
}

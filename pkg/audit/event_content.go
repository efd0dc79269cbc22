package audit

import "fmt"

// Content operations
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// ContentEvent is a change to a content item made through the API
type ContentEvent struct {
	Subject      string
	ClientIP     string
	Operation    string
	ContentID    string
	Success      bool
	ErrorMessage string
}

func (e ContentEvent) MessageID() string {
	return "content"
}

func (e ContentEvent) Message() string {
	target := "content"
	if e.ContentID != "" {
		target = "content " + e.ContentID
	}
	if e.Success {
		return fmt.Sprintf("%s %sd %s", e.Subject, e.Operation, target)
	}
	msg := fmt.Sprintf("%s tried to %s %s", e.Subject, e.Operation, target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ContentEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e ContentEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ContentEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Subject,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
	if e.ContentID != "" {
		sd[SDIDSubject] = map[string]string{"content": e.ContentID}
	}
	return sd
}

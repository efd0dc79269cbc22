package audit

import "fmt"

// ContactEvent is a message received through the contact form
type ContactEvent struct {
	Email    string
	ClientIP string
	Stored   bool
}

func (e ContactEvent) MessageID() string {
	return "contact"
}

func (e ContactEvent) Message() string {
	if e.Stored {
		return fmt.Sprintf("contact message from %s stored", e.Email)
	}
	return fmt.Sprintf("contact message from %s received", e.Email)
}

func (e ContactEvent) Severity() Severity {
	return SeverityInfo
}

func (e ContactEvent) Facility() int {
	return FacilityUser
}

func (e ContactEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"email": e.Email,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "contact",
			"result":    "success",
		},
	}
}

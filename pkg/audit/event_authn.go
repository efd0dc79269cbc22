package audit

import "fmt"

// AuthenticateEvent is a bearer token presented to the API
type AuthenticateEvent struct {
	Subject      string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated with a bearer token", e.Subject)
	}
	subject := e.Subject
	if subject == "" {
		subject = "anonymous"
	}
	msg := fmt.Sprintf("%s failed to authenticate with a bearer token", subject)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"authenticator": "bearer",
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "authenticate",
			"result":    result(e.Success),
		},
	}
	if e.Subject != "" {
		sd[SDIDAuth]["user"] = e.Subject
	}
	return sd
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

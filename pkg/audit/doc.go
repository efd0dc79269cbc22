// Package audit records security-relevant events in RFC5424 syslog format.
//
// Events cover bearer token authentication, changes made through the
// content API and messages received through the contact form. Each event
// is written as one syslog line and, when a Store is configured, saved to
// the audit_messages table.
//
// # Usage
//
//	a := audit.New(audit.NewLogger("MediaMind AI", os.Stdout), nil, logger)
//	a.Record(ctx, audit.ContentEvent{Subject: "editor", Operation: audit.OperationCreate, ContentID: "7", Success: true})
package audit

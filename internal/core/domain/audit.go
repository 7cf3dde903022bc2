package domain

import "time"

// AuditAction names the kind of change recorded for a personnel record.
type AuditAction string

const (
	AuditCreated AuditAction = "created"
	AuditUpdated AuditAction = "updated"
	AuditDeleted AuditAction = "deleted"
)

// AuditEvent records who changed which personnel record, and which fields.
type AuditEvent struct {
	ID          string      `json:"id"`
	Action      AuditAction `json:"action"`
	PersonnelID string      `json:"personnelId"`
	ActorID     string      `json:"actorId"`
	ActorRole   Role        `json:"actorRole"`
	Fields      []string    `json:"fields,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLadderCreate     = "LADDER_CREATE"
	AuditActionLadderUpdate     = "LADDER_UPDATE"
	AuditActionLadderDispose    = "LADDER_DISPOSE"
	AuditActionInspectionCreate = "INSPECTION_CREATE"
	AuditActionUserActivate     = "USER_ACTIVATE"
	AuditActionUserDeactivate   = "USER_DEACTIVATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditMeta carries request metadata for audit entries.
type AuditMeta struct {
	ActorID   string
	IP        string
	UserAgent string
}

// Export actions are recorded by the audit middleware around downloads.
const (
	AuditActionRegisterExport = "LADDER_REGISTER_EXPORT"
	AuditActionProtocolExport = "INSPECTION_PROTOCOL_EXPORT"
)

package model

import "time"

// AuditAction names a privileged administrative action.
type AuditAction string

const (
	AuditChangeRole    AuditAction = "CHANGE_ROLE"
	AuditBlockUser     AuditAction = "BLOCK_USER"
	AuditUnblockUser   AuditAction = "UNBLOCK_USER"
	AuditUpdateTariffs AuditAction = "UPDATE_TARIFFS"
)

// AuditLogEntry is an append-only record in `audit_logs`. Entries are never
// updated or deleted by the application.
type AuditLogEntry struct {
	ID           int64          `json:"id"`
	Action       AuditAction    `json:"action"`
	ActorUserID  int64          `json:"actor_user_id"`
	TargetUserID *int64         `json:"target_user_id"`
	Details      map[string]any `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Queue names. Both are durable.
const (
	ClaimEventsQueue = "claims.status_changed"
	AuditEventsQueue = "admin.audit"
)

// ClaimEvent is published after a claim is created or moves to a new
// status. It carries enough information for downstream consumers to log or
// notify without querying the primary database.
type ClaimEvent struct {
	ClaimID        int64     `json:"claim_id"`
	PolicyID       int64     `json:"policy_id"`
	FromStatus     string    `json:"from_status,omitempty"`
	ToStatus       string    `json:"to_status"`
	ActorUserID    *int64    `json:"actor_user_id,omitempty"`
	ApprovedPayout *float64  `json:"approved_payout,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// AuditEvent mirrors an audit log entry written by the admin engine.
type AuditEvent struct {
	AuditID      int64          `json:"audit_id"`
	Action       string         `json:"action"`
	ActorUserID  int64          `json:"actor_user_id"`
	TargetUserID *int64         `json:"target_user_id,omitempty"`
	Details      map[string]any `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}

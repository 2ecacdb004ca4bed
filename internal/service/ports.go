// Package service holds the business-rule engines: the claim lifecycle, the
// tariff computation and policy activation, the telemetry classifier and the
// admin governance operations. Engines keep no state between calls; every
// decision is made on entities and settings loaded at the start of the call.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/queue"
)

// ClaimStore persists claims keyed by claim_id.
type ClaimStore interface {
	FindByID(ctx context.Context, claimID int64) (*model.Claim, error)
	Create(ctx context.Context, c *model.Claim) error
	UpdateState(ctx context.Context, c *model.Claim, expected model.ClaimStatus) error
}

// PolicyStore persists policies keyed by policy_id.
type PolicyStore interface {
	FindByID(ctx context.Context, policyID int64) (*model.Policy, error)
	Create(ctx context.Context, p *model.Policy) error
	Activate(ctx context.Context, p *model.Policy, expected model.PolicyStatus) error
}

// PaymentStore persists policy payments.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	FindPaidByPolicy(ctx context.Context, policyID int64) (*model.Payment, error)
}

// TelemetryStore persists immutable telemetry events.
type TelemetryStore interface {
	Create(ctx context.Context, e *model.TelemetryEvent) error
	ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]model.TelemetryEvent, error)
}

// UserStore persists users keyed by user_id.
type UserStore interface {
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdateRole(ctx context.Context, userID int64, role model.Role, at time.Time) error
	SetActive(ctx context.Context, userID int64, active bool, at time.Time) error
}

// SettingsStore is the key/value configuration store.
type SettingsStore interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	UpsertNumber(ctx context.Context, key string, value float64, at time.Time) (*model.Setting, error)
}

// AuditStore is the append-only audit trail.
type AuditStore interface {
	Append(ctx context.Context, e *model.AuditLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
}

// IDAllocator hands out domain ids per named sequence.
type IDAllocator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// EventPublisher mirrors state changes to the message broker. Publishing is
// best effort: the stored entity is authoritative.
type EventPublisher interface {
	PublishClaimEvent(ctx context.Context, ev queue.ClaimEvent) error
	PublishAuditEvent(ctx context.Context, ev queue.AuditEvent) error
}

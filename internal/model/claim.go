package model

import "time"

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimCreated  ClaimStatus = "Created"
	ClaimInReview ClaimStatus = "InReview"
	ClaimApproved ClaimStatus = "Approved"
	ClaimRejected ClaimStatus = "Rejected"
	ClaimPaid     ClaimStatus = "Paid"
)

// claimTransitions is the only place legal claim moves are declared.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimCreated:  {ClaimInReview},
	ClaimInReview: {ClaimApproved, ClaimRejected},
	ClaimApproved: {ClaimPaid},
}

// Valid reports whether s is a known claim status.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimCreated, ClaimInReview, ClaimApproved, ClaimRejected, ClaimPaid:
		return true
	}
	return false
}

// CanTransitionTo reports whether a claim in status s may move to next.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	for _, allowed := range claimTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s ClaimStatus) Terminal() bool {
	return s.Valid() && len(claimTransitions[s]) == 0
}

// HasPayout reports whether a claim in status s carries an approved payout.
func (s ClaimStatus) HasPayout() bool {
	return s == ClaimApproved || s == ClaimPaid
}

// Claim is a client-reported incident against an active policy. It mirrors
// the `claims` table.
//
// Fields:
//
//	ClaimID            – domain identifier.
//	PolicyID           – policy the incident is reported against.
//	ReportedByClientID – claimant; must own the policy.
//	HandlerUserID      – manager assigned on registration (nil while Created).
//	EventTime          – when the incident happened; inside the coverage window.
//	LocationLat/Lng    – optional incident coordinates.
//	Status             – lifecycle state.
//	EstimatedDamage    – optional damage estimate, upper bound for the payout.
//	ApprovedPayout     – set only while Approved or Paid.
type Claim struct {
	ClaimID            int64       `json:"claim_id"`
	PolicyID           int64       `json:"policy_id"`
	ReportedByClientID int64       `json:"reported_by_client_id"`
	HandlerUserID      *int64      `json:"handler_user_id"`
	EventTime          time.Time   `json:"event_time"`
	LocationLat        *float64    `json:"location_lat,omitempty"`
	LocationLng        *float64    `json:"location_lng,omitempty"`
	Description        string      `json:"description"`
	Status             ClaimStatus `json:"status"`
	EstimatedDamage    *float64    `json:"estimated_damage,omitempty"`
	ApprovedPayout     *float64    `json:"approved_payout,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// HandledBy reports whether userID is the claim's assigned handler.
func (c *Claim) HandledBy(userID int64) bool {
	return c.HandlerUserID != nil && *c.HandlerUserID == userID
}

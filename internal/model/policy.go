package model

import "time"

// PolicyType is the insurance product of a policy.
type PolicyType string

const (
	PolicyOSCPV PolicyType = "OSCPV"
	PolicyCASCO PolicyType = "CASCO"
)

func (t PolicyType) Valid() bool { return t == PolicyOSCPV || t == PolicyCASCO }

// PolicyStatus is the lifecycle state of a policy.
type PolicyStatus string

const (
	PolicyDraft     PolicyStatus = "Draft"
	PolicyActive    PolicyStatus = "Active"
	PolicyExpired   PolicyStatus = "Expired"
	PolicyCancelled PolicyStatus = "Cancelled"
)

var policyTransitions = map[PolicyStatus][]PolicyStatus{
	PolicyDraft:  {PolicyActive, PolicyCancelled},
	PolicyActive: {PolicyExpired, PolicyCancelled},
}

func (s PolicyStatus) Valid() bool {
	switch s {
	case PolicyDraft, PolicyActive, PolicyExpired, PolicyCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a policy in status s may move to next.
func (s PolicyStatus) CanTransitionTo(next PolicyStatus) bool {
	for _, allowed := range policyTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Policy is an insurance contract for a vehicle/client pair. It mirrors the
// `policies` table. FinalPremium is derived once, at creation, from
// BasePremium and the tariff coefficient in force at that moment.
type Policy struct {
	PolicyID        int64        `json:"policy_id"`
	ClientID        int64        `json:"client_id"`
	VehicleID       int64        `json:"vehicle_id"`
	PolicyNumber    string       `json:"policy_number"`
	Type            PolicyType   `json:"type"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
	Status          PolicyStatus `json:"status"`
	BasePremium     float64      `json:"base_premium"`
	FinalPremium    float64      `json:"final_premium"`
	TariffPlan      string       `json:"tariff_plan"`
	CreatedByUserID int64        `json:"created_by_user_id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Covers reports whether t falls inside the closed coverage window.
func (p *Policy) Covers(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Payment records money received (or attempted) for a policy. A Paid
// payment is the precondition for activating the policy.
type Payment struct {
	PaymentID     int64         `json:"payment_id"`
	PolicyID      int64         `json:"policy_id"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	PaymentDate   time.Time     `json:"payment_date"`
	PaymentMethod string        `json:"payment_method"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

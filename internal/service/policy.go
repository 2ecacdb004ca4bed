package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/repository"
)

// CreatePolicyInput carries a new policy. PolicyID is optional; when zero
// the next id is allocated.
type CreatePolicyInput struct {
	PolicyID        int64    `json:"policy_id"`
	ClientID        int64    `json:"client_id"`
	VehicleID       int64    `json:"vehicle_id"`
	PolicyNumber    string   `json:"policy_number"`
	Type            string   `json:"type"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	BasePremium     *float64 `json:"base_premium"`
	TariffPlan      string   `json:"tariff_plan"`
	CreatedByUserID int64    `json:"created_by_user_id"`
}

// PolicyService prices new policies and activates paid ones.
type PolicyService struct {
	policies PolicyStore
	payments PaymentStore
	settings SettingsStore
	ids      IDAllocator
	now      func() time.Time
	log      *log.Logger
}

func NewPolicyService(policies PolicyStore, payments PaymentStore, settings SettingsStore, ids IDAllocator) *PolicyService {
	return &PolicyService{
		policies: policies,
		payments: payments,
		settings: settings,
		ids:      ids,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.New("policies"),
	}
}

// Create stores a Draft policy whose final premium is the base premium
// times the tariff coefficient currently configured for its plan.
func (s *PolicyService) Create(ctx context.Context, in CreatePolicyInput) (*model.Policy, error) {
	if in.ClientID == 0 || in.VehicleID == 0 || in.CreatedByUserID == 0 ||
		strings.TrimSpace(in.PolicyNumber) == "" || in.Type == "" ||
		in.StartDate == "" || in.EndDate == "" || in.BasePremium == nil || in.TariffPlan == "" {
		return nil, apperr.MissingField("required fields: client_id, vehicle_id, policy_number, type, start_date, end_date, base_premium, tariff_plan, created_by_user_id")
	}
	ptype := model.PolicyType(in.Type)
	if !ptype.Valid() {
		return nil, apperr.InvalidInput("type must be OSCPV or CASCO")
	}
	start, ok := parseInstant(in.StartDate)
	if !ok {
		return nil, apperr.InvalidInput("invalid start_date")
	}
	end, ok := parseInstant(in.EndDate)
	if !ok {
		return nil, apperr.InvalidInput("invalid end_date")
	}
	if !end.After(start) {
		return nil, apperr.InvalidInput("end_date must be after start_date")
	}

	tariffs, err := LoadTariffSnapshot(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	final, err := tariffs.ComputePremium(*in.BasePremium, in.TariffPlan)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &model.Policy{
		ClientID:        in.ClientID,
		VehicleID:       in.VehicleID,
		PolicyNumber:    strings.TrimSpace(in.PolicyNumber),
		Type:            ptype,
		StartDate:       start,
		EndDate:         end,
		Status:          model.PolicyDraft,
		BasePremium:     *in.BasePremium,
		FinalPremium:    final,
		TariffPlan:      in.TariffPlan,
		CreatedByUserID: in.CreatedByUserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = createWithID(ctx, s.ids, repository.SeqPolicies, in.PolicyID, func(id int64) error {
		p.PolicyID = id
		return s.policies.Create(ctx, p)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.PreconditionFailed("policy id or number already exists")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "store policy", err)
	}
	return p, nil
}

// Get returns a policy by id.
func (s *PolicyService) Get(ctx context.Context, policyID int64) (*model.Policy, error) {
	p, err := s.policies.FindByID(ctx, policyID)
	if err != nil {
		return nil, notFoundOr(err, "policy not found", "load policy")
	}
	return p, nil
}

// Activate moves a Draft policy to Active once a Paid payment exists for it.
// Coverage restarts at the activation instant.
func (s *PolicyService) Activate(ctx context.Context, policyID int64) (*model.Policy, error) {
	p, err := s.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(model.PolicyActive) {
		return nil, apperr.Newf(apperr.KindPreconditionFailed, "policy in status %s cannot be activated", p.Status)
	}
	if _, err := s.payments.FindPaidByPolicy(ctx, policyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.PreconditionFailed("policy cannot be activated without payment")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load payment", err)
	}

	from := p.Status
	now := s.now()
	p.Status = model.PolicyActive
	p.StartDate = now
	p.UpdatedAt = now
	if err := s.policies.Activate(ctx, p, from); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, apperr.PreconditionFailed("policy was modified concurrently")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "activate policy", err)
	}
	s.log.Infof("policy %d activated", p.PolicyID)
	return p, nil
}

// RecordPaymentInput is a payment reported against a policy.
type RecordPaymentInput struct {
	PolicyID      int64    `json:"policy_id"`
	Amount        *float64 `json:"amount"`
	Currency      string   `json:"currency"`
	PaymentDate   string   `json:"payment_date"`
	PaymentMethod string   `json:"payment_method"`
	Status        string   `json:"status"`
}

// PaymentService records payments. It does not talk to any gateway; the
// status is taken from the caller.
type PaymentService struct {
	payments PaymentStore
	policies PolicyStore
	ids      IDAllocator
	now      func() time.Time
}

func NewPaymentService(payments PaymentStore, policies PolicyStore, ids IDAllocator) *PaymentService {
	return &PaymentService{
		payments: payments,
		policies: policies,
		ids:      ids,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record validates and stores a payment. Status defaults to Pending and the
// payment date to now.
func (s *PaymentService) Record(ctx context.Context, in RecordPaymentInput) (*model.Payment, error) {
	if in.PolicyID == 0 || in.Amount == nil || strings.TrimSpace(in.Currency) == "" || strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, apperr.MissingField("required fields: policy_id, amount, currency, payment_method")
	}
	if !isFinite(*in.Amount) || *in.Amount <= 0 {
		return nil, apperr.InvalidInput("amount must be a positive number")
	}
	status := model.PaymentPending
	if in.Status != "" {
		status = model.PaymentStatus(in.Status)
		if !status.Valid() {
			return nil, apperr.InvalidInput("status must be one of Pending, Paid, Failed, Refunded")
		}
	}
	now := s.now()
	paidAt := now
	if in.PaymentDate != "" {
		t, ok := parseInstant(in.PaymentDate)
		if !ok {
			return nil, apperr.InvalidInput("invalid payment_date")
		}
		paidAt = t
	}

	if _, err := s.policies.FindByID(ctx, in.PolicyID); err != nil {
		return nil, notFoundOr(err, "policy not found", "load policy")
	}
	id, err := s.ids.Next(ctx, repository.SeqPayments)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "allocate payment id", err)
	}
	p := &model.Payment{
		PaymentID:     id,
		PolicyID:      in.PolicyID,
		Amount:        *in.Amount,
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		PaymentDate:   paidAt,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Status:        status,
		CreatedAt:     now,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "store payment", err)
	}
	return p, nil
}

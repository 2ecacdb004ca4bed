package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/auto-insurance/internal/access"
	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/queue"
	"github.com/iliyamo/auto-insurance/internal/repository"
)

// CreateClaimInput is the client report that opens a claim.
type CreateClaimInput struct {
	PolicyID           *int64   `json:"policy_id"`
	ReportedByClientID *int64   `json:"reported_by_client_id"`
	EventTime          string   `json:"event_time"`
	LocationLat        *float64 `json:"location_lat"`
	LocationLng        *float64 `json:"location_lng"`
	Description        string   `json:"description"`
	EstimatedDamage    *float64 `json:"estimated_damage"`
}

// ClaimService runs the claim lifecycle: Created → InReview →
// Approved/Rejected, and Approved → Paid.
type ClaimService struct {
	claims   ClaimStore
	policies PolicyStore
	users    UserStore
	ids      IDAllocator
	events   EventPublisher
	now      func() time.Time
	log      *log.Logger
}

// NewClaimService wires the claim engine. events may be nil.
func NewClaimService(claims ClaimStore, policies PolicyStore, users UserStore, ids IDAllocator, events EventPublisher) *ClaimService {
	return &ClaimService{
		claims:   claims,
		policies: policies,
		users:    users,
		ids:      ids,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.New("claims"),
	}
}

// Create validates a client report against the referenced policy and stores
// a new claim in status Created.
func (s *ClaimService) Create(ctx context.Context, in CreateClaimInput) (*model.Claim, error) {
	if in.PolicyID == nil || *in.PolicyID == 0 ||
		in.ReportedByClientID == nil || *in.ReportedByClientID == 0 ||
		strings.TrimSpace(in.EventTime) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, apperr.MissingField("required fields: policy_id, reported_by_client_id, event_time, description")
	}

	policy, err := s.policies.FindByID(ctx, *in.PolicyID)
	if err != nil {
		return nil, notFoundOr(err, "policy not found", "load policy")
	}
	if err := access.PolicyOwner(policy, *in.ReportedByClientID).Err(); err != nil {
		return nil, err
	}

	eventTime, ok := parseInstant(in.EventTime)
	if !ok {
		return nil, apperr.InvalidInput("invalid event_time")
	}
	if policy.Status != model.PolicyActive {
		return nil, apperr.PreconditionFailed("policy must be Active to create a claim")
	}
	if !policy.Covers(eventTime) {
		return nil, apperr.PreconditionFailed("event time is outside policy coverage period")
	}
	if in.EstimatedDamage != nil && (!isFinite(*in.EstimatedDamage) || *in.EstimatedDamage < 0) {
		return nil, apperr.InvalidInput("estimated_damage must be a finite non-negative number")
	}

	id, err := s.ids.Next(ctx, repository.SeqClaims)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "allocate claim id", err)
	}
	now := s.now()
	c := &model.Claim{
		ClaimID:            id,
		PolicyID:           policy.PolicyID,
		ReportedByClientID: *in.ReportedByClientID,
		EventTime:          eventTime,
		LocationLat:        in.LocationLat,
		LocationLng:        in.LocationLng,
		Description:        in.Description,
		Status:             model.ClaimCreated,
		EstimatedDamage:    in.EstimatedDamage,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.claims.Create(ctx, c); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "store claim", err)
	}
	s.publish(ctx, c, "", nil)
	return c, nil
}

// Get returns a claim by id.
func (s *ClaimService) Get(ctx context.Context, claimID int64) (*model.Claim, error) {
	c, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, notFoundOr(err, "claim not found", "load claim")
	}
	return c, nil
}

// Register assigns the calling manager as handler and moves the claim into
// review.
func (s *ClaimService) Register(ctx context.Context, claimID, managerUserID int64) (*model.Claim, error) {
	c, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	manager, err := s.loadActor(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	if err := access.Manager(manager).Err(); err != nil {
		return nil, err
	}
	if c.Status != model.ClaimCreated {
		return nil, apperr.PreconditionFailed("only claims with status Created can be registered")
	}

	handler := managerUserID
	c.HandlerUserID = &handler
	return s.transition(ctx, c, model.ClaimInReview, managerUserID)
}

// Decide approves or rejects a claim under review. payout is the raw
// approved_payout value from the request and is only read on approval.
func (s *ClaimService) Decide(ctx context.Context, claimID, managerUserID int64, decision string, payout any) (*model.Claim, error) {
	c, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	manager, err := s.loadActor(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	if err := access.Manager(manager).Err(); err != nil {
		return nil, err
	}
	if c.Status != model.ClaimInReview {
		return nil, apperr.PreconditionFailed("decision is allowed only for InReview claims")
	}
	if err := access.ClaimHandler(manager, c, "make a decision").Err(); err != nil {
		return nil, err
	}

	switch model.ClaimStatus(decision) {
	case model.ClaimApproved:
		amount, ok := coerceNumber(payout)
		if !ok || amount < 0 {
			return nil, apperr.InvalidInput("invalid approved_payout")
		}
		if c.EstimatedDamage != nil && amount > *c.EstimatedDamage {
			return nil, apperr.PreconditionFailed("approved_payout cannot exceed estimated_damage")
		}
		c.ApprovedPayout = &amount
		return s.transition(ctx, c, model.ClaimApproved, managerUserID)
	case model.ClaimRejected:
		c.ApprovedPayout = nil
		return s.transition(ctx, c, model.ClaimRejected, managerUserID)
	default:
		return nil, apperr.InvalidInput("decision must be 'Approved' or 'Rejected'")
	}
}

// Pay marks an approved claim as paid.
func (s *ClaimService) Pay(ctx context.Context, claimID, managerUserID int64) (*model.Claim, error) {
	c, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	manager, err := s.loadActor(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	if err := access.Manager(manager).Err(); err != nil {
		return nil, err
	}
	if c.Status != model.ClaimApproved {
		return nil, apperr.PreconditionFailed("only Approved claim can be paid")
	}
	if err := access.ClaimHandler(manager, c, "mark claim as Paid").Err(); err != nil {
		return nil, err
	}
	return s.transition(ctx, c, model.ClaimPaid, managerUserID)
}

// transition checks the move against the status table and persists it with
// the previous status as write guard.
func (s *ClaimService) transition(ctx context.Context, c *model.Claim, next model.ClaimStatus, actorID int64) (*model.Claim, error) {
	from := c.Status
	if !from.CanTransitionTo(next) {
		return nil, apperr.Newf(apperr.KindPreconditionFailed, "claim cannot move from %s to %s", from, next)
	}
	c.Status = next
	c.UpdatedAt = s.now()
	if err := s.claims.UpdateState(ctx, c, from); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, apperr.PreconditionFailed("claim was modified concurrently")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "update claim", err)
	}
	s.publish(ctx, c, from, &actorID)
	return c, nil
}

func (s *ClaimService) publish(ctx context.Context, c *model.Claim, from model.ClaimStatus, actorID *int64) {
	if s.events == nil {
		return
	}
	ev := queue.ClaimEvent{
		ClaimID:        c.ClaimID,
		PolicyID:       c.PolicyID,
		FromStatus:     string(from),
		ToStatus:       string(c.Status),
		ActorUserID:    actorID,
		ApprovedPayout: c.ApprovedPayout,
		OccurredAt:     c.UpdatedAt,
	}
	if err := s.events.PublishClaimEvent(ctx, ev); err != nil {
		s.log.Warnf("publish claim %d event: %v", c.ClaimID, err)
	}
}

// loadActor resolves a user, returning (nil, nil) when the record does not
// exist so the access policy can report it.
func (s *ClaimService) loadActor(ctx context.Context, userID int64) (*model.User, error) {
	return findUser(ctx, s.users, userID)
}

func findUser(ctx context.Context, users UserStore, userID int64) (*model.User, error) {
	u, err := users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load user", err)
	}
	return u, nil
}

// notFoundOr turns repository.ErrNotFound into a NotFound error with msg and
// wraps anything else as internal.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Wrap(apperr.KindInternal, op, err)
}

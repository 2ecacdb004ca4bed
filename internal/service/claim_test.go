package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/model"
)

const (
	clientID   int64 = 7
	managerID  int64 = 2
	manager2ID int64 = 3
	agentID    int64 = 4
	policyID   int64 = 100
)

type ClaimServiceSuite struct {
	suite.Suite
	ctx      context.Context
	claims   *memClaims
	policies *memPolicies
	users    *memUsers
	events   *recordingPublisher
	svc      *ClaimService
}

func TestClaimServiceSuite(t *testing.T) {
	suite.Run(t, new(ClaimServiceSuite))
}

func (s *ClaimServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.claims = newMemClaims()
	s.policies = newMemPolicies(model.Policy{
		PolicyID:  policyID,
		ClientID:  clientID,
		Status:    model.PolicyActive,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	s.users = newMemUsers(
		model.User{UserID: managerID, Role: model.RoleManager, IsActive: true},
		model.User{UserID: manager2ID, Role: model.RoleManager, IsActive: true},
		model.User{UserID: agentID, Role: model.RoleAgent, IsActive: true},
	)
	s.events = &recordingPublisher{}
	s.svc = NewClaimService(s.claims, s.policies, s.users, newSeqIDs(), s.events)
	s.svc.now = clock
}

// SetupSubTest gives every s.Run case a fresh store.
func (s *ClaimServiceSuite) SetupSubTest() { s.SetupTest() }

func (s *ClaimServiceSuite) validInput() CreateClaimInput {
	return CreateClaimInput{
		PolicyID:           ptr(policyID),
		ReportedByClientID: ptr(clientID),
		EventTime:          "2025-03-01T10:00:00Z",
		Description:        "rear-ended at a light",
		EstimatedDamage:    ptr(15000.0),
	}
}

func (s *ClaimServiceSuite) created() *model.Claim {
	c, err := s.svc.Create(s.ctx, s.validInput())
	s.Require().NoError(err)
	return c
}

func (s *ClaimServiceSuite) inReview() *model.Claim {
	c := s.created()
	c, err := s.svc.Register(s.ctx, c.ClaimID, managerID)
	s.Require().NoError(err)
	return c
}

func (s *ClaimServiceSuite) approved(payout float64) *model.Claim {
	c := s.inReview()
	c, err := s.svc.Decide(s.ctx, c.ClaimID, managerID, "Approved", payout)
	s.Require().NoError(err)
	return c
}

func (s *ClaimServiceSuite) TestCreate() {
	s.Run("stores a Created claim without handler", func() {
		c := s.created()
		s.Equal(int64(1), c.ClaimID)
		s.Equal(model.ClaimCreated, c.Status)
		s.Nil(c.HandlerUserID)
		s.Nil(c.ApprovedPayout)
		s.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), c.EventTime)

		stored, err := s.svc.Get(s.ctx, c.ClaimID)
		s.Require().NoError(err)
		s.Equal(c.Description, stored.Description)
		s.Require().Len(s.events.claims, 1)
		s.Equal("Created", s.events.claims[0].ToStatus)
	})

	s.Run("assigns sequential ids", func() {
		first := s.created()
		second := s.created()
		s.Equal(first.ClaimID+1, second.ClaimID)
	})

	s.Run("missing fields", func() {
		for name, mutate := range map[string]func(*CreateClaimInput){
			"policy_id":             func(in *CreateClaimInput) { in.PolicyID = nil },
			"reported_by_client_id": func(in *CreateClaimInput) { in.ReportedByClientID = nil },
			"event_time":            func(in *CreateClaimInput) { in.EventTime = "" },
			"description":           func(in *CreateClaimInput) { in.Description = "  " },
		} {
			in := s.validInput()
			mutate(&in)
			_, err := s.svc.Create(s.ctx, in)
			s.ErrorIs(err, apperr.ErrMissingField, name)
		}
	})

	s.Run("unknown policy", func() {
		in := s.validInput()
		in.PolicyID = ptr(int64(999))
		_, err := s.svc.Create(s.ctx, in)
		s.ErrorIs(err, apperr.ErrNotFound)
	})

	s.Run("claimant must own the policy", func() {
		in := s.validInput()
		in.ReportedByClientID = ptr(int64(8))
		_, err := s.svc.Create(s.ctx, in)
		s.ErrorIs(err, apperr.ErrForbidden)
	})

	s.Run("unparseable event time", func() {
		in := s.validInput()
		in.EventTime = "yesterday"
		_, err := s.svc.Create(s.ctx, in)
		s.ErrorIs(err, apperr.ErrInvalidInput)
	})

	s.Run("draft policy", func() {
		p := s.policies.rows[policyID]
		p.Status = model.PolicyDraft
		s.policies.rows[policyID] = p

		_, err := s.svc.Create(s.ctx, s.validInput())
		s.ErrorIs(err, apperr.ErrPreconditionFailed)
		s.Empty(s.claims.rows)
	})

	s.Run("event outside coverage window", func() {
		in := s.validInput()
		in.EventTime = "2026-01-05T00:00:00Z"
		_, err := s.svc.Create(s.ctx, in)
		s.ErrorIs(err, apperr.ErrPreconditionFailed)
	})

	s.Run("window bounds are inclusive", func() {
		in := s.validInput()
		in.EventTime = "2025-12-31T00:00:00Z"
		_, err := s.svc.Create(s.ctx, in)
		s.NoError(err)
	})
}

func (s *ClaimServiceSuite) TestRegister() {
	s.Run("moves Created to InReview and assigns handler", func() {
		c := s.inReview()
		s.Equal(model.ClaimInReview, c.Status)
		s.Require().NotNil(c.HandlerUserID)
		s.Equal(managerID, *c.HandlerUserID)
	})

	s.Run("repeat register is a precondition failure", func() {
		c := s.inReview()
		_, err := s.svc.Register(s.ctx, c.ClaimID, managerID)
		s.ErrorIs(err, apperr.ErrPreconditionFailed)
	})

	s.Run("caller must be a manager", func() {
		c := s.created()
		_, err := s.svc.Register(s.ctx, c.ClaimID, agentID)
		s.ErrorIs(err, apperr.ErrForbidden)
	})

	s.Run("unknown caller", func() {
		c := s.created()
		_, err := s.svc.Register(s.ctx, c.ClaimID, 404)
		s.ErrorIs(err, apperr.ErrNotFound)
	})

	s.Run("unknown claim", func() {
		_, err := s.svc.Register(s.ctx, 42, managerID)
		s.ErrorIs(err, apperr.ErrNotFound)
	})

	s.Run("blocked manager", func() {
		c := s.created()
		u := s.users.rows[managerID]
		u.IsActive = false
		s.users.rows[managerID] = u
		_, err := s.svc.Register(s.ctx, c.ClaimID, managerID)
		s.ErrorIs(err, apperr.ErrForbidden)
	})
}

func (s *ClaimServiceSuite) TestDecide() {
	s.Run("approve sets payout", func() {
		c := s.approved(12000)
		s.Equal(model.ClaimApproved, c.Status)
		s.Require().NotNil(c.ApprovedPayout)
		s.Equal(12000.0, *c.ApprovedPayout)
	})

	s.Run("payout equal to estimate is allowed", func() {
		c := s.approved(15000)
		s.Equal(15000.0, *c.ApprovedPayout)
	})

	s.Run("payout above estimate", func() {
		c := s.inReview()
		_, err := s.svc.Decide(s.ctx, c.ClaimID, managerID, "Approved", 20000.0)
		s.ErrorIs(err, apperr.ErrPreconditionFailed)

		stored, _ := s.svc.Get(s.ctx, c.ClaimID)
		s.Equal(model.ClaimInReview, stored.Status)
		s.Nil(stored.ApprovedPayout)
	})

	s.Run("invalid payout values", func() {
		c := s.inReview()
		for _, payout := range []any{nil, -1.0, "abc", true} {
			_, err := s.svc.Decide(s.ctx, c.ClaimID, managerID, "Approved", payout)
			s.ErrorIs(err, apperr.ErrInvalidInput, "%v", payout)
		}
	})

	s.Run("numeric string payout is accepted", func() {
		c := s.inReview()
		c, err := s.svc.Decide(s.ctx, c.ClaimID, managerID, "Approved", "500")
		s.Require().NoError(err)
		s.Equal(500.0, *c.ApprovedPayout)
	})

	s.Run("payout is unbounded without estimate", func() {
		in := s.validInput()
		in.EstimatedDamage = nil
		c, err := s.svc.Create(s.ctx, in)
		s.Require().NoError(err)
		_, err = s.svc.Register(s.ctx, c.ClaimID, managerID)
		s.Require().NoError(err)
		c, err = s.svc.Decide(s.ctx, c.ClaimID, managerID, "Approved", 1e6)
		s.Require().NoError(err)
		s.Equal(1e6, *c.ApprovedPayout)
	})

	s.Run("reject clears payout", func() {
		c := s.inReview()
		c, err := s.svc.Decide(s.ctx, c.ClaimID, managerID, "Rejected", 100.0)
		s.Require().NoError(err)
		s.Equal(model.ClaimRejected, c.Status)
		s.Nil(c.ApprovedPayout)
	})

	s.Run("other manager is forbidden", func() {
		c := s.inReview()
		_, err := s.svc.Decide(s.ctx, c.ClaimID, manager2ID, "Approved", 10.0)
		s.ErrorIs(err, apperr.ErrForbidden)
	})

	s.Run("unknown decision", func() {
		c := s.inReview()
		_, err := s.svc.Decide(s.ctx, c.ClaimID, managerID, "approved", 10.0)
		s.ErrorIs(err, apperr.ErrInvalidInput)
	})

	s.Run("claim not in review", func() {
		c := s.created()
		_, err := s.svc.Decide(s.ctx, c.ClaimID, managerID, "Approved", 10.0)
		s.ErrorIs(err, apperr.ErrPreconditionFailed)
	})

	s.Run("rejected is terminal", func() {
		c := s.inReview()
		_, err := s.svc.Decide(s.ctx, c.ClaimID, managerID, "Rejected", nil)
		s.Require().NoError(err)
		_, err = s.svc.Decide(s.ctx, c.ClaimID, managerID, "Approved", 10.0)
		s.ErrorIs(err, apperr.ErrPreconditionFailed)
		_, err = s.svc.Pay(s.ctx, c.ClaimID, managerID)
		s.ErrorIs(err, apperr.ErrPreconditionFailed)
	})
}

func (s *ClaimServiceSuite) TestPay() {
	s.Run("approved claim becomes Paid and keeps payout", func() {
		c := s.approved(900)
		c, err := s.svc.Pay(s.ctx, c.ClaimID, managerID)
		s.Require().NoError(err)
		s.Equal(model.ClaimPaid, c.Status)
		s.Equal(900.0, *c.ApprovedPayout)

		last := s.events.claims[len(s.events.claims)-1]
		s.Equal("Approved", last.FromStatus)
		s.Equal("Paid", last.ToStatus)
		s.Equal(managerID, *last.ActorUserID)
	})

	s.Run("only the handler pays", func() {
		c := s.approved(900)
		_, err := s.svc.Pay(s.ctx, c.ClaimID, manager2ID)
		s.ErrorIs(err, apperr.ErrForbidden)
	})

	s.Run("in review claim cannot be paid", func() {
		c := s.inReview()
		_, err := s.svc.Pay(s.ctx, c.ClaimID, managerID)
		s.ErrorIs(err, apperr.ErrPreconditionFailed)
	})

	s.Run("paid is terminal", func() {
		c := s.approved(900)
		_, err := s.svc.Pay(s.ctx, c.ClaimID, managerID)
		s.Require().NoError(err)
		_, err = s.svc.Pay(s.ctx, c.ClaimID, managerID)
		s.ErrorIs(err, apperr.ErrPreconditionFailed)
	})
}

func (s *ClaimServiceSuite) TestPayoutInvariant() {
	check := func(c *model.Claim) {
		stored, err := s.svc.Get(s.ctx, c.ClaimID)
		s.Require().NoError(err)
		s.Equal(stored.Status.HasPayout(), stored.ApprovedPayout != nil, stored.Status)
		if stored.ApprovedPayout != nil && stored.EstimatedDamage != nil {
			s.LessOrEqual(*stored.ApprovedPayout, *stored.EstimatedDamage)
		}
		if stored.Status != model.ClaimCreated {
			s.NotNil(stored.HandlerUserID)
		}
	}

	c := s.created()
	check(c)
	c, _ = s.svc.Register(s.ctx, c.ClaimID, managerID)
	check(c)
	c, _ = s.svc.Decide(s.ctx, c.ClaimID, managerID, "Approved", 15000.0)
	check(c)
	c, _ = s.svc.Pay(s.ctx, c.ClaimID, managerID)
	check(c)
}

func (s *ClaimServiceSuite) TestConcurrentWriterLoses() {
	c := s.inReview()
	// another writer decides first; this copy still believes InReview
	stale, err := s.svc.Get(s.ctx, c.ClaimID)
	s.Require().NoError(err)
	_, err = s.svc.Decide(s.ctx, c.ClaimID, managerID, "Rejected", nil)
	s.Require().NoError(err)

	_, err = s.svc.transition(s.ctx, stale, model.ClaimApproved, managerID)
	s.ErrorIs(err, apperr.ErrPreconditionFailed)
}

func (s *ClaimServiceSuite) TestPublishFailureIsNotReturned() {
	s.events.err = errors.New("broker down")
	c := s.inReview()
	s.Equal(model.ClaimInReview, c.Status)
}

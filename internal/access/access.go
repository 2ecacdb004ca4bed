// Package access holds the authorization policy of the rule engines. Each
// function answers one question about an actor and returns a Decision; the
// engines only translate a denial into an error and never inspect roles
// themselves.
package access

import (
	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/model"
)

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool
	Kind    apperr.Kind
	Reason  string
}

// Allow grants the permission.
func Allow() Decision { return Decision{Allowed: true} }

// Deny refuses the permission with the error kind the caller should surface.
func Deny(kind apperr.Kind, reason string) Decision {
	return Decision{Kind: kind, Reason: reason}
}

// Err converts a denial into an *apperr.Error, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperr.New(d.Kind, d.Reason)
}

// HasRole requires an active actor with the given role. A nil actor means
// the user record could not be found.
func HasRole(actor *model.User, role model.Role) Decision {
	if actor == nil {
		return Deny(apperr.KindNotFound, role.String()+" user not found")
	}
	if actor.Role != role {
		return Deny(apperr.KindForbidden, "only "+role.String()+" can perform this action")
	}
	if !actor.IsActive {
		return Deny(apperr.KindForbidden, "user is blocked")
	}
	return Allow()
}

// Admin gates every governance operation.
func Admin(actor *model.User) Decision { return HasRole(actor, model.RoleAdmin) }

// Manager gates claim registration.
func Manager(actor *model.User) Decision { return HasRole(actor, model.RoleManager) }

// ClaimHandler gates decide and pay: the actor must be an active manager and
// the handler assigned to the claim at registration.
func ClaimHandler(actor *model.User, claim *model.Claim, action string) Decision {
	if d := Manager(actor); !d.Allowed {
		return d
	}
	if !claim.HandledBy(actor.UserID) {
		return Deny(apperr.KindForbidden, "only claim handler can "+action)
	}
	return Allow()
}

// PolicyOwner gates claim creation: the claimant must be the policy holder.
func PolicyOwner(policy *model.Policy, clientID int64) Decision {
	if policy.ClientID != clientID {
		return Deny(apperr.KindForbidden, "client is not owner of this policy")
	}
	return Allow()
}

// SelfBlock forbids an admin from blocking their own account.
func SelfBlock(actorID, targetID int64) Decision {
	if actorID == targetID {
		return Deny(apperr.KindInvalidInput, "admin cannot block themself")
	}
	return Allow()
}

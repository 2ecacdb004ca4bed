package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/auto-insurance/internal/model"
)

// PolicyRepo manages persistence for policies.
type PolicyRepo struct {
	db *sql.DB
}

// NewPolicyRepo constructs a PolicyRepo with the given DB handle.
func NewPolicyRepo(db *sql.DB) *PolicyRepo { return &PolicyRepo{db: db} }

const policyColumns = `policy_id, client_id, vehicle_id, policy_number, type, start_date, end_date,
	status, base_premium, final_premium, tariff_plan, created_by_user_id, created_at, updated_at`

// FindByID loads a policy by its domain id. ErrNotFound when absent.
func (r *PolicyRepo) FindByID(ctx context.Context, policyID int64) (*model.Policy, error) {
	var p model.Policy
	err := r.db.QueryRowContext(ctx, `SELECT `+policyColumns+` FROM policies WHERE policy_id = ?`, policyID).Scan(
		&p.PolicyID, &p.ClientID, &p.VehicleID, &p.PolicyNumber, &p.Type, &p.StartDate, &p.EndDate,
		&p.Status, &p.BasePremium, &p.FinalPremium, &p.TariffPlan, &p.CreatedByUserID, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new policy. The caller assigns PolicyID and the derived
// FinalPremium. ErrDuplicate when the id or policy number is taken.
func (r *PolicyRepo) Create(ctx context.Context, p *model.Policy) error {
	const q = `INSERT INTO policies (` + policyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		p.PolicyID, p.ClientID, p.VehicleID, p.PolicyNumber, string(p.Type), p.StartDate.UTC(), p.EndDate.UTC(),
		string(p.Status), p.BasePremium, p.FinalPremium, p.TariffPlan, p.CreatedByUserID,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	return translate(err)
}

// Activate moves a policy to Active and resets its start date, guarded by
// the expected current status. ErrStaleWrite when the status changed.
func (r *PolicyRepo) Activate(ctx context.Context, p *model.Policy, expected model.PolicyStatus) error {
	const q = `UPDATE policies SET status = ?, start_date = ?, updated_at = ? WHERE policy_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(p.Status), p.StartDate.UTC(), p.UpdatedAt.UTC(), p.PolicyID, string(expected))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleWrite
	}
	return nil
}

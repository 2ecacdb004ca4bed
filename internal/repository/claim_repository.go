package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/auto-insurance/internal/model"
)

// ClaimRepo manages persistence for claims.
type ClaimRepo struct {
	db *sql.DB
}

// NewClaimRepo constructs a ClaimRepo with the given DB handle.
func NewClaimRepo(db *sql.DB) *ClaimRepo { return &ClaimRepo{db: db} }

const claimColumns = `claim_id, policy_id, reported_by_client_id, handler_user_id, event_time,
	location_lat, location_lng, description, status, estimated_damage, approved_payout,
	created_at, updated_at`

func scanClaim(row interface{ Scan(...any) error }) (*model.Claim, error) {
	var (
		c                        model.Claim
		handler                  sql.NullInt64
		lat, lng, damage, payout sql.NullFloat64
	)
	err := row.Scan(&c.ClaimID, &c.PolicyID, &c.ReportedByClientID, &handler, &c.EventTime,
		&lat, &lng, &c.Description, &c.Status, &damage, &payout,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.HandlerUserID = int64Ptr(handler)
	c.LocationLat = float64Ptr(lat)
	c.LocationLng = float64Ptr(lng)
	c.EstimatedDamage = float64Ptr(damage)
	c.ApprovedPayout = float64Ptr(payout)
	return &c, nil
}

// FindByID loads a claim by its domain id. ErrNotFound when absent.
func (r *ClaimRepo) FindByID(ctx context.Context, claimID int64) (*model.Claim, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE claim_id = ?`, claimID)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Create inserts a new claim. The caller assigns ClaimID.
func (r *ClaimRepo) Create(ctx context.Context, c *model.Claim) error {
	const q = `INSERT INTO claims (claim_id, policy_id, reported_by_client_id, handler_user_id, event_time,
		location_lat, location_lng, description, status, estimated_damage, approved_payout, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		c.ClaimID, c.PolicyID, c.ReportedByClientID, nullInt64(c.HandlerUserID), c.EventTime.UTC(),
		nullFloat64(c.LocationLat), nullFloat64(c.LocationLng), c.Description, string(c.Status),
		nullFloat64(c.EstimatedDamage), nullFloat64(c.ApprovedPayout), c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	return translate(err)
}

// UpdateState persists the mutable lifecycle fields of c, but only while the
// stored status still equals expected. ErrStaleWrite when another writer
// moved the claim first.
func (r *ClaimRepo) UpdateState(ctx context.Context, c *model.Claim, expected model.ClaimStatus) error {
	const q = `UPDATE claims SET handler_user_id = ?, status = ?, approved_payout = ?, updated_at = ?
		WHERE claim_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q,
		nullInt64(c.HandlerUserID), string(c.Status), nullFloat64(c.ApprovedPayout), c.UpdatedAt.UTC(),
		c.ClaimID, string(expected))
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

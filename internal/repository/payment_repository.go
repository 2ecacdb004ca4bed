package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/auto-insurance/internal/model"
)

// PaymentRepo manages persistence for policy payments.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment. The caller assigns PaymentID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (payment_id, policy_id, amount, currency, payment_date, payment_method, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, p.PaymentID, p.PolicyID, p.Amount, p.Currency,
		p.PaymentDate.UTC(), p.PaymentMethod, string(p.Status), p.CreatedAt.UTC())
	return translate(err)
}

// FindPaidByPolicy returns the most recent Paid payment for a policy, or
// ErrNotFound when the policy has never been paid.
func (r *PaymentRepo) FindPaidByPolicy(ctx context.Context, policyID int64) (*model.Payment, error) {
	const q = `SELECT payment_id, policy_id, amount, currency, payment_date, payment_method, status, created_at
		FROM payments WHERE policy_id = ? AND status = ? ORDER BY payment_id DESC LIMIT 1`
	var p model.Payment
	err := r.db.QueryRowContext(ctx, q, policyID, string(model.PaymentPaid)).Scan(
		&p.PaymentID, &p.PolicyID, &p.Amount, &p.Currency, &p.PaymentDate, &p.PaymentMethod, &p.Status, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Sequence names understood by SequenceRepo.
const (
	SeqClaims    = "claims"
	SeqPolicies  = "policies"
	SeqPayments  = "payments"
	SeqTelemetry = "telemetry_events"
	SeqUsers     = "users"
)

// sequenceSources maps a sequence to the table and id column it numbers.
// The first allocation seeds the counter from MAX(column) so rows written
// before the counter existed are never reused.
var sequenceSources = map[string]struct{ table, column string }{
	SeqClaims:    {"claims", "claim_id"},
	SeqPolicies:  {"policies", "policy_id"},
	SeqPayments:  {"payments", "payment_id"},
	SeqTelemetry: {"telemetry_events", "event_id"},
	SeqUsers:     {"users", "user_id"},
}

// SequenceRepo hands out domain ids from the `id_sequences` table. Each call
// is a single atomic statement, so concurrent creators never receive the
// same id.
type SequenceRepo struct {
	db *sql.DB
}

// NewSequenceRepo returns a SequenceRepo bound to db.
func NewSequenceRepo(db *sql.DB) *SequenceRepo { return &SequenceRepo{db: db} }

// Next returns the next id of the named sequence.
func (r *SequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	src, ok := sequenceSources[name]
	if !ok {
		return 0, fmt.Errorf("unknown sequence %q", name)
	}
	// VALUES(value) is MAX(column)+1 at statement time, so ids written with a
	// caller supplied value are skipped. LAST_INSERT_ID(expr) makes the new
	// value available through the OK packet.
	q := fmt.Sprintf(`INSERT INTO id_sequences (name, value)
SELECT ?, COALESCE(MAX(%s), 0) + 1 FROM %s
ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(GREATEST(value + 1, VALUES(value)))`, src.column, src.table)

	res, err := r.db.ExecContext(ctx, q, name)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 1 {
		// first allocation inserted the seeded row
		var v int64
		if err := r.db.QueryRowContext(ctx, `SELECT value FROM id_sequences WHERE name = ?`, name).Scan(&v); err != nil {
			return 0, fmt.Errorf("read %s sequence: %w", name, err)
		}
		return v, nil
	}
	return res.LastInsertId()
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/auto-insurance/internal/model"
)

// AuditRepo appends to and reads from the `audit_logs` table. Rows are
// never updated or deleted here.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Append inserts an entry and fills in its storage id.
func (r *AuditRepo) Append(ctx context.Context, e *model.AuditLogEntry) error {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	b, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (action, actor_user_id, target_user_id, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(e.Action), e.ActorUserID, nullInt64(e.TargetUserID), b, e.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, action, actor_user_id, target_user_id, details, created_at
		 FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.AuditLogEntry{}
	for rows.Next() {
		var (
			e      model.AuditLogEntry
			target sql.NullInt64
			raw    []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorUserID, &target, &raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.TargetUserID = int64Ptr(target)
		e.Details = map[string]any{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Details); err != nil {
				return nil, fmt.Errorf("decode audit details %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

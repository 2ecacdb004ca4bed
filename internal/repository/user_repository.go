package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/auto-insurance/internal/model"
)

// UserRepo mirrors the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user whose UserID and PasswordHash are already set.
// ErrDuplicate when the id or email is taken.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (user_id, role, full_name, email, password_hash, is_active, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		u.UserID, string(u.Role), u.FullName, u.Email, u.PasswordHash, u.IsActive, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	return translate(err)
}

// FindByID fetches a user by domain id. ErrNotFound when absent.
func (r *UserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,role,full_name,email,password_hash,is_active,created_at,updated_at FROM users WHERE user_id=? LIMIT 1",
		userID).Scan(&u.UserID, &u.Role, &u.FullName, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateRole sets a user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, userID int64, role model.Role, at time.Time) error {
	return r.exec1(ctx, "UPDATE users SET role=?, updated_at=? WHERE user_id=?", string(role), at.UTC(), userID)
}

// SetActive flips the is_active flag.
func (r *UserRepo) SetActive(ctx context.Context, userID int64, active bool, at time.Time) error {
	return r.exec1(ctx, "UPDATE users SET is_active=?, updated_at=? WHERE user_id=?", active, at.UTC(), userID)
}

// exec1 runs an UPDATE that must address an existing row.
func (r *UserRepo) exec1(ctx context.Context, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

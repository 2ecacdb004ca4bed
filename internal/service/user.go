package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/repository"
	"github.com/iliyamo/auto-insurance/internal/utils"
)

// CreateUserInput registers a user. Role defaults to Driver.
type CreateUserInput struct {
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserService handles user registration and lookup. Role and activation
// changes go through AdminService.
type UserService struct {
	users      UserStore
	ids        IDAllocator
	bcryptCost int
	now        func() time.Time
}

func NewUserService(users UserStore, ids IDAllocator, bcryptCost int) *UserService {
	return &UserService{
		users:      users,
		ids:        ids,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new active user with a hashed password.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.FullName)
	if email == "" || name == "" || in.Password == "" {
		return nil, apperr.MissingField("required fields: full_name, email, password")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.InvalidInput("invalid email")
	}
	role := model.RoleDriver
	if in.Role != "" {
		role = model.Role(in.Role)
		if !role.Valid() {
			return nil, apperr.InvalidInput("invalid role")
		}
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if errors.Is(err, utils.ErrWeakPassword) {
		return nil, apperr.InvalidInput(err.Error())
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	id, err := s.ids.Next(ctx, repository.SeqUsers)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "allocate user id", err)
	}
	now := s.now()
	u := &model.User{
		UserID:       id,
		Role:         role,
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.PreconditionFailed("email already registered")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "store user", err)
	}
	return u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "load user")
	}
	return u, nil
}

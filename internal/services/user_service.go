package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/denimhub/dashboard/internal/models"
	pkgauth "github.com/denimhub/dashboard/pkg/auth"
	pkglogger "github.com/denimhub/dashboard/pkg/logger"
)

// AdminRoleName is the role given to the bootstrap account
const AdminRoleName = "ADMIN"

// UserStore is the write side of the user repository used for bootstrapping
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User, roleName string) (*models.User, error)
}

// UserService manages dashboard accounts
type UserService struct {
	repo   UserStore
	hash   func(password string) (string, error)
	logger *slog.Logger
}

func NewUserService(repo UserStore, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		hash:   pkgauth.HashPassword,
		logger: logger,
	}
}

// EnsureAdmin creates the first administrator when email and password are both
// set and no account with that email exists. It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = NormalizeIdentity(email)
	if email == "" || password == "" {
		s.logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return false, nil
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("admin user already exists")
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := s.hash(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	active := true
	admin := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    "Admin",
		Active:       &active,
	}

	created, err := s.repo.Create(ctx, admin, AdminRoleName)
	if err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info("admin user created",
		slog.String("user_id", created.ID),
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return true, nil
}

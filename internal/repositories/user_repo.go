package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/denimhub/dashboard/internal/database"
	"github.com/denimhub/dashboard/internal/models"
)

type UserRepository struct {
	pool database.Querier
}

func NewUserRepository(pool database.Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role_id, r.name, u.active, u.created_at, u.updated_at`

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var firstName, lastName *string

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &firstName, &lastName,
		&user.RoleID, &user.RoleName, &user.Active,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if firstName != nil {
		user.FirstName = *firstName
	}
	if lastName != nil {
		user.LastName = *lastName
	}

	return &user, nil
}

// FindActiveByEmail looks up a user case-insensitively, skipping deactivated accounts.
// A NULL active flag counts as active.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN roles r ON u.role_id = r.id
		WHERE LOWER(u.email) = LOWER($1) AND (u.active = true OR u.active IS NULL)
	`

	user, err := scanUserRow(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetByEmail looks up a user regardless of active state
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN roles r ON u.role_id = r.id
		WHERE LOWER(u.email) = LOWER($1)
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// Create inserts a user and assigns it the named role
func (r *UserRepository) Create(ctx context.Context, user *models.User, roleName string) (*models.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		WITH inserted AS (
			INSERT INTO users (email, password_hash, first_name, last_name, role_id, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, (SELECT id FROM roles WHERE name = $5), true, $6, $7)
			RETURNING id, email, password_hash, first_name, last_name, role_id, active, created_at, updated_at
		)
		SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role_id, r.name, u.active, u.created_at, u.updated_at
		FROM inserted u
		LEFT JOIN roles r ON u.role_id = r.id
	`

	created, err := scanUserRow(r.pool.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, roleName,
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

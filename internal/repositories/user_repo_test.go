package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/denimhub/dashboard/internal/models"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name",
	"role_id", "name", "active", "created_at", "updated_at",
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestUserRepository_FindActiveByEmail(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		email     string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		check     func(t *testing.T, user *models.User)
	}{
		{
			name:  "found with role",
			email: "Ana@Denim.test",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userRowColumns).
					AddRow("4f7e9a52-0c1b-4d8e-9a36-7f1d2c3b4a50", "ana@denim.test", "$2a$hash",
						strPtr("Ana"), strPtr("Ruiz"), intPtr(1), strPtr("ADMIN"), boolPtr(true), now, now)
				mock.ExpectQuery(`WHERE LOWER\(u.email\) = LOWER\(\$1\) AND \(u.active = true OR u.active IS NULL\)`).
					WithArgs("Ana@Denim.test").
					WillReturnRows(rows)
			},
			check: func(t *testing.T, user *models.User) {
				assert.Equal(t, "ana@denim.test", user.Email)
				assert.Equal(t, "Ana", user.FirstName)
				assert.Equal(t, "Ruiz", user.LastName)
				assert.Equal(t, "ADMIN", user.Role())
				require.NotNil(t, user.RoleID)
				assert.Equal(t, 1, *user.RoleID)
			},
		},
		{
			name:  "null names and role",
			email: "sin.rol@denim.test",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userRowColumns).
					AddRow("6a1f3c2e-8b7d-4e5f-a1b2-c3d4e5f6a7b8", "sin.rol@denim.test", "$2a$hash",
						(*string)(nil), (*string)(nil), (*int)(nil), (*string)(nil), (*bool)(nil), now, now)
				mock.ExpectQuery(`FROM users u`).
					WithArgs("sin.rol@denim.test").
					WillReturnRows(rows)
			},
			check: func(t *testing.T, user *models.User) {
				assert.Empty(t, user.FirstName)
				assert.Nil(t, user.RoleID)
				assert.Equal(t, models.DefaultRoleName, user.Role())
				assert.True(t, user.IsActive())
			},
		},
		{
			name:  "not found",
			email: "nobody@denim.test",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM users u`).
					WithArgs("nobody@denim.test").
					WillReturnRows(pgxmock.NewRows(userRowColumns))
			},
			wantErr: models.ErrNotFound,
		},
		{
			name:  "database error",
			email: "ana@denim.test",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM users u`).
					WithArgs("ana@denim.test").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewUserRepository(mock)
			user, err := repo.FindActiveByEmail(context.Background(), tt.email)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, models.ErrNotFound) {
					assert.ErrorIs(t, err, models.ErrNotFound)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				tt.check(t, user)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

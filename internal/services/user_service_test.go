package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denimhub/dashboard/internal/models"
)

func newTestUserService(repo UserStore) *UserService {
	svc := NewUserService(repo, discardLogger())
	svc.hash = func(password string) (string, error) { return "hashed:" + password, nil }
	return svc
}

func TestUserService_EnsureAdmin_Creates(t *testing.T) {
	var gotUser *models.User
	var gotRole string
	repo := &MockUserStore{
		CreateFunc: func(ctx context.Context, user *models.User, roleName string) (*models.User, error) {
			gotUser, gotRole = user, roleName
			created := *user
			created.ID = "admin-id"
			return &created, nil
		},
	}

	created, err := newTestUserService(repo).EnsureAdmin(context.Background(), " Owner@Denim.com ", "s3cret")

	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, gotUser)
	assert.Equal(t, "owner@denim.com", gotUser.Email)
	assert.Equal(t, "hashed:s3cret", gotUser.PasswordHash)
	assert.True(t, gotUser.IsActive())
	assert.Equal(t, AdminRoleName, gotRole)
}

func TestUserService_EnsureAdmin_SkipsWhenUnconfigured(t *testing.T) {
	repo := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			t.Fatal("repository must not be queried")
			return nil, nil
		},
	}

	created, err := newTestUserService(repo).EnsureAdmin(context.Background(), "", "")

	require.NoError(t, err)
	assert.False(t, created)
}

func TestUserService_EnsureAdmin_ExistingUser(t *testing.T) {
	repo := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: "existing"}, nil
		},
		CreateFunc: func(ctx context.Context, user *models.User, roleName string) (*models.User, error) {
			t.Fatal("existing admin must not be recreated")
			return nil, nil
		},
	}

	created, err := newTestUserService(repo).EnsureAdmin(context.Background(), "owner@denim.com", "s3cret")

	require.NoError(t, err)
	assert.False(t, created)
}

func TestUserService_EnsureAdmin_LookupError(t *testing.T) {
	repo := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, errors.New("db down")
		},
	}

	_, err := newTestUserService(repo).EnsureAdmin(context.Background(), "owner@denim.com", "s3cret")

	assert.Error(t, err)
}

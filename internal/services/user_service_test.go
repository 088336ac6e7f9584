package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserCreateAndAuthenticate(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{
		Username:    "frida",
		Email:       "Frida@Example.com",
		Password:    "correct horse",
		DisplayName: "Frida K",
	})
	require.NoError(t, err)
	require.Equal(t, "frida@example.com", user.Email)
	require.NotEqual(t, "correct horse", user.Password)

	_, err = svc.Create(ctx, CreateUserInput{
		Username: "frida",
		Email:    "other@example.com",
		Password: "whatever",
	})
	require.Error(t, err)

	authed, err := svc.Authenticate(ctx, "frida", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)
	require.NotNil(t, authed.LastLoginAt)

	// Email works as the login identifier too.
	_, err = svc.Authenticate(ctx, "frida@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "frida", "wrong password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "correct horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveUsers(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{
		Username: "dormant",
		Email:    "dormant@example.com",
		Password: "pw12345",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err = svc.Authenticate(ctx, "dormant", "pw12345")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserSearch(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for _, username := range []string{"anna", "annika", "bert"} {
		_, err := svc.Create(ctx, CreateUserInput{
			Username: username,
			Email:    username + "@example.com",
			Password: "pw12345",
		})
		require.NoError(t, err)
	}

	users, err := svc.Search(ctx, "ann", 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "anna", users[0].Username)

	_, err = svc.Search(ctx, "a", 10)
	require.Error(t, err)

	users, err = svc.Search(ctx, "bert@example", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestGetByID(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{
		Username: "frida",
		Email:    "frida@example.com",
		Password: "pw12345",
	})
	require.NoError(t, err)

	found, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "frida", found.Username)

	_, err = svc.GetByID(ctx, "missing-id")
	require.ErrorIs(t, err, ErrUserNotFound)
}

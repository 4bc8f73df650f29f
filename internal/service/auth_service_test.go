package service

import (
	"context"
	"testing"

	"motorplus/internal/apierror"
	"motorplus/internal/config"
	"motorplus/internal/dto"
	"motorplus/internal/repository"
	"motorplus/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T) *authService {
	t.Helper()
	repo := repository.NewUserRepository(testutil.NewDB(t))
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 2}
	return &authService{repo: repo, cfg: cfg, cost: bcrypt.MinCost}
}

func seedUser(t *testing.T, s *authService, username, role string) *dto.UserResponse {
	t.Helper()
	u, err := s.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: username, Email: username + "@Taller.test", Password: "secreto123", Role: role,
	})
	require.NoError(t, err)
	return u
}

func TestLogin_IssuesSignedToken(t *testing.T) {
	s := newAuth(t)
	u := seedUser(t, s, "recepcion", "STAFF")

	resp, err := s.Login(context.Background(), dto.LoginRequest{Username: "recepcion", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 7200, resp.ExpiresIn)
	assert.Equal(t, "STAFF", resp.Role)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims["user_id"])
	assert.Equal(t, "STAFF", claims["role"])
}

func TestLogin_ByEmailCaseInsensitive(t *testing.T) {
	s := newAuth(t)
	seedUser(t, s, "jefe", "ADMIN")

	_, err := s.Login(context.Background(), dto.LoginRequest{Username: "JEFE@taller.TEST", Password: "secreto123"})
	require.NoError(t, err)
}

func TestLogin_Rejections(t *testing.T) {
	s := newAuth(t)
	u := seedUser(t, s, "recepcion", "STAFF")
	ctx := context.Background()

	_, err := s.Login(ctx, dto.LoginRequest{Username: "recepcion", Password: "otra-clave"})
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)

	_, err = s.Login(ctx, dto.LoginRequest{Username: "nadie", Password: "secreto123"})
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)

	require.NoError(t, s.SetUserActive(ctx, uuid.MustParse(u.ID), false))
	_, err = s.Login(ctx, dto.LoginRequest{Username: "recepcion", Password: "secreto123"})
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	s := newAuth(t)
	u := seedUser(t, s, "recepcion", "STAFF")
	id := uuid.MustParse(u.ID)
	ctx := context.Background()

	err := s.ChangePassword(ctx, id, dto.ChangePasswordRequest{CurrentPassword: "mal", NewPassword: "nuevaclave1"})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	err = s.ChangePassword(ctx, id, dto.ChangePasswordRequest{CurrentPassword: "secreto123", NewPassword: "corta"})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	require.NoError(t, s.ChangePassword(ctx, id, dto.ChangePasswordRequest{CurrentPassword: "secreto123", NewPassword: "nuevaclave1"}))
	_, err = s.Login(ctx, dto.LoginRequest{Username: "recepcion", Password: "nuevaclave1"})
	require.NoError(t, err)
}

func TestCreateUser_Rules(t *testing.T) {
	s := newAuth(t)
	seedUser(t, s, "recepcion", "STAFF")
	ctx := context.Background()

	_, err := s.CreateUser(ctx, dto.CreateUserRequest{Username: "x", Password: "secreto123", Role: "ROOT"})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "recepcion@taller.test", users[0].Email)
}

package services

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"voice-lab/auth"
	apperrors "voice-lab/errors"
	"voice-lab/mocks"
	"voice-lab/repositories"
)

func newAuthService(t *testing.T) (AuthService, *mocks.MockIUserRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	users := mocks.NewMockIUserRepository(ctrl)
	issuer := auth.NewTokenIssuer(strings.Repeat("s", 32), time.Hour)
	return NewAuthService(users, issuer, slog.New(slog.DiscardHandler)), users
}

func TestAuthService_Register(t *testing.T) {
	req := require.New(t)
	service, users := newAuthService(t)

	users.EXPECT().CreateUser("alice@example.com", gomock.Any()).
		DoAndReturn(func(_, hash string) (string, error) {
			// The service must never hand the repository a plain password
			req.True(strings.HasPrefix(hash, "$argon2id$"))
			return "user-1", nil
		}).Times(1)

	id, err := service.Register("alice@example.com", "ComplexPass123!")
	req.NoError(err)
	req.Equal("user-1", id)
}

func TestAuthService_RegisterRejectsWeakPassword(t *testing.T) {
	req := require.New(t)
	service, _ := newAuthService(t)

	// No repository call expected
	_, err := service.Register("alice@example.com", "weak")
	req.Error(err)
}

func TestAuthService_LoginHappyPath(t *testing.T) {
	req := require.New(t)
	service, users := newAuthService(t)

	hash, err := auth.HashPassword("ComplexPass123!")
	req.NoError(err)
	users.EXPECT().GetUserByEmail("alice@example.com").Return(repositories.UserRecord{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Roles:        []string{"user"},
	}, nil).Times(1)

	token, err := service.Login("alice@example.com", "ComplexPass123!")
	req.NoError(err)
	req.NotEmpty(token)
}

func TestAuthService_LoginFailsTheSameWay(t *testing.T) {
	req := require.New(t)
	service, users := newAuthService(t)

	hash, err := auth.HashPassword("ComplexPass123!")
	req.NoError(err)

	// Unknown email
	users.EXPECT().GetUserByEmail("ghost@example.com").
		Return(repositories.UserRecord{}, apperrors.ErrNotFound).Times(1)
	_, err = service.Login("ghost@example.com", "ComplexPass123!")
	req.ErrorIs(err, apperrors.ErrInvalidCredentials)

	// Wrong password
	users.EXPECT().GetUserByEmail("alice@example.com").Return(repositories.UserRecord{
		ID:           "user-1",
		PasswordHash: hash,
	}, nil).Times(1)
	_, err = service.Login("alice@example.com", "WrongPass123!")
	req.ErrorIs(err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_LoginPropagatesRepositoryFailure(t *testing.T) {
	req := require.New(t)
	service, users := newAuthService(t)

	dbErr := errors.New("badger unavailable")
	users.EXPECT().GetUserByEmail("alice@example.com").
		Return(repositories.UserRecord{}, dbErr).Times(1)

	_, err := service.Login("alice@example.com", "ComplexPass123!")
	req.ErrorIs(err, dbErr)
}

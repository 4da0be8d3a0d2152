package services

import (
	"errors"
	"fmt"
	"log/slog"

	"voice-lab/auth"
	apperrors "voice-lab/errors"
	"voice-lab/repositories"
)

type IAuthService interface {
	Register(email, password string) (string, error)
	Login(email, password string) (string, error)
}

// AuthService handles credential registration and login token issuance.
type AuthService struct {
	users  repositories.IUserRepository
	issuer auth.TokenIssuer
	log    *slog.Logger
}

func NewAuthService(users repositories.IUserRepository, issuer auth.TokenIssuer, log *slog.Logger) AuthService {
	return AuthService{users: users, issuer: issuer, log: log}
}

// Register validates the request, hashes the password and stores the account.
// It returns the new user id.
func (s AuthService) Register(email, password string) (string, error) {
	if err := auth.ValidateRegister(auth.RegisterRequest{Email: email, Password: password}); err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	id, err := s.users.CreateUser(email, hash)
	if err != nil {
		return "", err
	}
	s.log.Info("user registered", "email", email)
	return id, nil
}

// Login verifies the credentials and returns a signed session token.
// Unknown emails and wrong passwords fail the same way on purpose.
func (s AuthService) Login(email, password string) (string, error) {
	record, err := s.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrInvalidCredentials
		}
		return "", err
	}
	match, err := auth.ComparePassword(password, record.PasswordHash)
	if err != nil {
		return "", err
	}
	if !match {
		return "", apperrors.ErrInvalidCredentials
	}
	token, err := s.issuer.Generate(record.ID, record.Roles)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrTokenGeneration, err)
	}
	return token, nil
}

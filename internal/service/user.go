package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/repository"
)

// Roles accepted when provisioning an account.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// NewUser is the input for provisioning a dashboard account.
type NewUser struct {
	Email    string
	Password string
	Role     string
}

// UserService provisions dashboard accounts from the operator CLI.
type UserService struct {
	repo repository.UsersRepository
}

// NewUserService builds a new UserService instance.
func NewUserService(repo repository.UsersRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateUser hashes the password and stores a new account. Role defaults to user.
func (s *UserService) CreateUser(ctx context.Context, req NewUser) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := strings.ToLower(strings.TrimSpace(req.Role))

	if email == "" || req.Password == "" {
		return nil, errors.New("email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, errors.New("email is invalid")
	}
	switch role {
	case "":
		role = RoleUser
	case RoleUser, RoleAdmin:
	default:
		return nil, fmt.Errorf("unsupported role %q", role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, email, string(hashed), role)
	if err != nil {
		return nil, err
	}
	return user, nil
}

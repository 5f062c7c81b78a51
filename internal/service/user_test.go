package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/repository"
)

func TestUserService_CreateUser(t *testing.T) {
	var (
		gotEmail, gotHash, gotRole string
	)
	repo := &mockUsersRepository{
		create: func(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
			gotEmail, gotHash, gotRole = email, passwordHash, role
			return &entity.User{
				ID:           uuid.MustParse("cccccccc-cccc-cccc-cccc-cccccccccccc"),
				Email:        email,
				PasswordHash: passwordHash,
				Role:         role,
			}, nil
		},
	}

	service := NewUserService(repo)
	user, err := service.CreateUser(context.Background(), NewUser{Email: "  New@Example.com ", Password: "secret", Role: "  Admin "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "new@example.com" || user.Role != RoleAdmin {
		t.Fatalf("unexpected user: %+v", user)
	}
	if gotEmail != "new@example.com" || gotRole != RoleAdmin {
		t.Fatalf("unexpected repository input: %s %s", gotEmail, gotRole)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(gotHash), []byte("secret")); err != nil {
		t.Fatalf("expected bcrypt hash of password, got %v", err)
	}
}

func TestUserService_CreateUser_DefaultRole(t *testing.T) {
	repo := &mockUsersRepository{
		create: func(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
			if role != RoleUser {
				t.Fatalf("expected default role user, got %s", role)
			}
			return &entity.User{ID: uuid.New(), Email: email, Role: role}, nil
		},
	}

	if _, err := NewUserService(repo).CreateUser(context.Background(), NewUser{Email: "plain@example.com", Password: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserService_CreateUser_Rejects(t *testing.T) {
	tests := map[string]NewUser{
		"empty payload": {},
		"missing at":    {Email: "nobody", Password: "secret"},
		"unknown role":  {Email: "ops@example.com", Password: "secret", Role: "root"},
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			service := NewUserService(&mockUsersRepository{})
			if _, err := service.CreateUser(context.Background(), req); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestUserService_CreateUser_Duplicate(t *testing.T) {
	repo := &mockUsersRepository{
		create: func(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
			return nil, repository.ErrEmailDuplicate
		},
	}

	_, err := NewUserService(repo).CreateUser(context.Background(), NewUser{Email: "dup@example.com", Password: "secret"})
	if !errors.Is(err, repository.ErrEmailDuplicate) {
		t.Fatalf("expected email duplicate error, got %v", err)
	}
}

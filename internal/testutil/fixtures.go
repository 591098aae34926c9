package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dom/course-catalog/internal/domain"
	"github.com/google/uuid"
)

// UserBuilder creates directory rows for tests with a builder pattern.
type UserBuilder struct {
	name     string
	email    string
	password string
	role     string
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		name:     "Test User",
		email:    fmt.Sprintf("user_%s@example.com", uuid.New().String()[:8]),
		password: "testpassword123",
		role:     domain.RoleUser,
	}
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithRole(role string) *UserBuilder {
	b.role = role
	return b
}

// Build writes the user into the fake directory and returns it along with
// the raw password.
func (b *UserBuilder) Build(t *testing.T, repo *FakeUserRepo) (*domain.User, string) {
	t.Helper()

	user := &domain.User{
		ID:        uuid.New(),
		Name:      b.name,
		Email:     b.email,
		Role:      b.role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := user.SetPassword(b.password); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

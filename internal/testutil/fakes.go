package testutil

import (
	"context"
	"sync"

	"github.com/dom/course-catalog/internal/domain"
	"github.com/google/uuid"
)

// FakeUserRepo is an in-memory user directory with the same error contract
// as the postgres implementation. FailWith, when set, makes every call fail
// to simulate an unavailable store.
type FakeUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	FailWith error
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *FakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *FakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return nil, r.FailWith
	}
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *FakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return nil, r.FailWith
	}
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *FakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *FakeUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return nil, r.FailWith
	}
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Role = role
	clone := *user
	return &clone, nil
}

func (r *FakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *FakeUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return nil, r.FailWith
	}
	users := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		clone := *user
		users = append(users, &clone)
	}
	return users, nil
}

// Count reports how many rows the directory holds.
func (r *FakeUserRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// SentMail records one delivery attempt against the fake mailer.
type SentMail struct {
	To       string
	Subject  string
	Template string
	Data     any
}

// FakeMailer records sends; set Err to simulate delivery failure.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *FakeMailer) Send(ctx context.Context, to, subject, templateName string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Template: templateName, Data: data})
	return nil
}

// LastCode extracts the activation code from the most recent send.
func (m *FakeMailer) LastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Sent) == 0 {
		return ""
	}
	data, ok := m.Sent[len(m.Sent)-1].Data.(map[string]string)
	if !ok {
		return ""
	}
	return data["Code"]
}

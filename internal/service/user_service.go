package service

import (
	"context"
	"log"

	"github.com/dom/course-catalog/internal/cache"
	"github.com/dom/course-catalog/internal/config"
	"github.com/dom/course-catalog/internal/domain"
	"github.com/dom/course-catalog/internal/repository"
	"github.com/google/uuid"
)

type UserService struct {
	users repository.UserRepository
	cache cache.SessionCache
	cfg   *config.Config
}

func NewUserService(users repository.UserRepository, sessionCache cache.SessionCache, cfg *config.Config) *UserService {
	return &UserService{users: users, cache: sessionCache, cfg: cfg}
}

func (s *UserService) UpdateInfo(ctx context.Context, userID uuid.UUID, name string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		user.Name = name
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.refreshCacheEntry(ctx, user)
	return user, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.ComparePassword(oldPassword) {
		return nil, domain.ErrInvalidCredentials
	}

	if err := user.SetPassword(newPassword); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.refreshCacheEntry(ctx, user)
	return user, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatar string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Avatar = avatar

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.refreshCacheEntry(ctx, user)
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) UpdateRole(ctx context.Context, userID uuid.UUID, role string) (*domain.User, error) {
	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	s.refreshCacheEntry(ctx, user)
	return user, nil
}

// DeleteUser removes the directory row and invalidates the session cache so
// the deletion becomes observable to holders of still-valid access tokens.
func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("ERROR [service.DeleteUser] cache delete for %s: %v", userID, err)
	}
	return nil
}

func (s *UserService) refreshCacheEntry(ctx context.Context, user *domain.User) {
	if err := s.cache.Set(ctx, user, s.cfg.RefreshTokenTTL); err != nil {
		log.Printf("ERROR [service.refreshCacheEntry] cache set for %s: %v", user.ID, err)
	}
}

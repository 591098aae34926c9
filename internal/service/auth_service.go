package service

import (
	"context"
	"errors"
	"log"

	"github.com/dom/course-catalog/internal/cache"
	"github.com/dom/course-catalog/internal/config"
	"github.com/dom/course-catalog/internal/domain"
	"github.com/dom/course-catalog/internal/mail"
	"github.com/dom/course-catalog/internal/repository"
	"github.com/dom/course-catalog/internal/token"
	"github.com/google/uuid"
)

type AuthService struct {
	users  repository.UserRepository
	cache  cache.SessionCache
	codec  *token.Codec
	mailer mail.Mailer
	cfg    *config.Config
}

func NewAuthService(users repository.UserRepository, sessionCache cache.SessionCache, codec *token.Codec, mailer mail.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		users:  users,
		cache:  sessionCache,
		codec:  codec,
		mailer: mailer,
		cfg:    cfg,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Avatar   string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// Register starts a registration. No user row is written; the candidate
// record travels inside the returned activation token and the confirmation
// code goes out by email. A failed send fails the whole attempt.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (string, error) {
	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return "", domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return "", err
	}

	code := token.NewActivationCode()
	pending := token.PendingUser{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Avatar:   input.Avatar,
	}

	activationToken, err := s.codec.IssueActivation(pending, code, s.cfg.ActivationTokenTTL)
	if err != nil {
		return "", err
	}

	data := map[string]string{"Name": input.Name, "Code": code}
	if err := s.mailer.Send(ctx, input.Email, "Activate your account", "activation.html", data); err != nil {
		return "", err
	}

	return activationToken, nil
}

// Activate consumes an activation token. On success the user row is
// created; the token is single-use in effect because the email now exists.
func (s *AuthService) Activate(ctx context.Context, activationToken, code string) (*domain.User, error) {
	pending, wantCode, err := s.codec.VerifyActivation(activationToken)
	if err != nil {
		return nil, err
	}

	if code != wantCode {
		return nil, domain.ErrCodeMismatch
	}

	if _, err := s.users.FindByEmail(ctx, pending.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user := &domain.User{
		ID:     uuid.New(),
		Name:   pending.Name,
		Email:  pending.Email,
		Avatar: pending.Avatar,
		Role:   domain.RoleUser,
	}
	if err := user.SetPassword(pending.Password); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login validates credentials. Unknown email and wrong password return the
// same error so accounts cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.ComparePassword(password) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

// SocialLogin trusts the upstream identity assertion: find by email, create
// if absent, then the usual token-issuance tail.
func (s *AuthService) SocialLogin(ctx context.Context, email, name, avatar string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}

		user = &domain.User{
			ID:     uuid.New(),
			Name:   name,
			Email:  email,
			Avatar: avatar,
			Role:   domain.RoleUser,
		}
		// no password login for social accounts; seed an unguessable one
		if err := user.SetPassword(uuid.New().String()); err != nil {
			return nil, err
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	return s.issueSession(ctx, user)
}

// Refresh mints a new access token from a refresh token. It trusts the
// signature and subject completely and never reads the directory; a deleted
// user is caught by identity resolution on the next guarded request.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (uuid.UUID, string, error) {
	if refreshToken == "" {
		return uuid.Nil, "", domain.ErrMissingRefreshToken
	}

	userID, err := s.codec.VerifySession(token.KindRefresh, refreshToken)
	if err != nil {
		return uuid.Nil, "", err
	}

	accessToken, err := s.codec.IssueSession(token.KindAccess, userID, s.cfg.AccessTokenTTL)
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, accessToken, nil
}

// VerifyAccessToken checks an access token's signature and expiry and
// returns its subject id. Pure computation, no store access.
func (s *AuthService) VerifyAccessToken(tokenString string) (uuid.UUID, error) {
	return s.codec.VerifySession(token.KindAccess, tokenString)
}

// Logout drops the session-presence marker. Idempotent.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("ERROR [service.Logout] cache delete for %s: %v", userID, err)
	}
	return nil
}

// ResolveUser maps a subject id to a user record, cache first, directory on
// miss. Cache failures degrade to directory reads.
func (s *AuthService) ResolveUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	cached, err := s.cache.Get(ctx, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("ERROR [service.ResolveUser] cache get for %s: %v", userID, err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, user, s.cfg.RefreshTokenTTL); err != nil {
		log.Printf("ERROR [service.ResolveUser] cache set for %s: %v", userID, err)
	}
	return user, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	accessToken, err := s.codec.IssueSession(token.KindAccess, user.ID, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.codec.IssueSession(token.KindRefresh, user.ID, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, user, s.cfg.RefreshTokenTTL); err != nil {
		log.Printf("ERROR [service.issueSession] cache set for %s: %v", user.ID, err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

package service

import (
	"github.com/dom/course-catalog/internal/cache"
	"github.com/dom/course-catalog/internal/config"
	"github.com/dom/course-catalog/internal/mail"
	"github.com/dom/course-catalog/internal/repository"
	"github.com/dom/course-catalog/internal/token"
)

type Services struct {
	Auth *AuthService
	User *UserService
}

func NewServices(users repository.UserRepository, sessionCache cache.SessionCache, codec *token.Codec, mailer mail.Mailer, cfg *config.Config) *Services {
	return &Services{
		Auth: NewAuthService(users, sessionCache, codec, mailer, cfg),
		User: NewUserService(users, sessionCache, cfg),
	}
}

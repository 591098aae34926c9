package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"

	"github.com/dom/course-catalog/internal/api/response"
	"github.com/dom/course-catalog/internal/domain"
	"github.com/dom/course-catalog/internal/service"
)

type contextKey string

const (
	userKey        contextKey = "user"
	accessTokenKey contextKey = "accessToken"
)

// UserFromContext returns the identity the access guard resolved for this
// request. The value is attached once and never mutated downstream.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}

// AccessTokenFromContext returns the access token the refresh stage minted
// for this request.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey).(string)
	return token, ok
}

// Authenticate is the access guard: it reads the access token from the
// cookie (or a bearer header for non-cookie clients), verifies it, resolves
// the subject through the session cache with a directory fallback, and
// attaches the user to the request context.
func Authenticate(auth *service.AuthService, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := accessTokenFromRequest(r)
			if tokenString == "" {
				response.Error(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error(), !production)
				return
			}

			userID, err := auth.VerifyAccessToken(tokenString)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, domain.ErrInvalidToken.Error(), !production)
				return
			}

			user, err := auth.ResolveUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					response.Error(w, http.StatusNotFound, domain.ErrUserNotFound.Error(), !production)
					return
				}
				log.Printf("ERROR [middleware.Authenticate] resolve %s: %v", userID, err)
				response.Error(w, http.StatusInternalServerError, domain.ErrUpstreamUnavailable.Error(), !production)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles is the role guard. It assumes Authenticate already ran and
// short-circuits with 403 when the resolved role is not in the set.
func RequireRoles(production bool, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error(), !production)
				return
			}

			if !slices.Contains(roles, user.Role) {
				response.Error(w, http.StatusForbidden, domain.ErrForbidden.Error(), !production)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RefreshSession verifies the refresh cookie and attaches a freshly minted
// access token to the request context for the terminal handler to surface.
// It never reads the user directory.
func RefreshSession(auth *service.AuthService, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var refreshToken string
			if cookie, err := r.Cookie("refresh_token"); err == nil {
				refreshToken = cookie.Value
			}

			_, accessToken, err := auth.Refresh(r.Context(), refreshToken)
			if err != nil {
				if errors.Is(err, domain.ErrMissingRefreshToken) {
					response.Error(w, http.StatusUnauthorized, domain.ErrMissingRefreshToken.Error(), !production)
					return
				}
				response.Error(w, http.StatusUnauthorized, domain.ErrInvalidToken.Error(), !production)
				return
			}

			ctx := context.WithValue(r.Context(), accessTokenKey, accessToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	const bearer = "Bearer "
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearer) {
		return header[len(bearer):]
	}
	return ""
}

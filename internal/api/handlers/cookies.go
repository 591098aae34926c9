package handlers

import (
	"net/http"
	"time"

	"github.com/dom/course-catalog/internal/config"
)

const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

// sessionCookie builds an HTTP-only cookie whose lifetime matches the
// token's own expiry. Development keeps SameSite=Lax over plain HTTP;
// production forces Secure and SameSite=None for the cross-site frontend.
func sessionCookie(cfg *config.Config, name, value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HttpOnly: true,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.IsProduction() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}

func setSessionCookies(w http.ResponseWriter, cfg *config.Config, accessToken, refreshToken string) {
	http.SetCookie(w, sessionCookie(cfg, accessCookieName, accessToken, cfg.AccessTokenTTL))
	http.SetCookie(w, sessionCookie(cfg, refreshCookieName, refreshToken, cfg.RefreshTokenTTL))
}

func setAccessCookie(w http.ResponseWriter, cfg *config.Config, accessToken string) {
	http.SetCookie(w, sessionCookie(cfg, accessCookieName, accessToken, cfg.AccessTokenTTL))
}

func clearSessionCookies(w http.ResponseWriter, cfg *config.Config) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		cookie := sessionCookie(cfg, name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}

package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dom/course-catalog/internal/api"
	"github.com/dom/course-catalog/internal/cache"
	"github.com/dom/course-catalog/internal/config"
	"github.com/dom/course-catalog/internal/service"
	"github.com/dom/course-catalog/internal/token"
	"github.com/redis/go-redis/v9"
)

// TestConfig returns a development config with deterministic secrets.
func TestConfig() *config.Config {
	return &config.Config{
		Port:                  "0",
		Environment:           "development",
		AccessTokenSecret:     "test-access-secret",
		RefreshTokenSecret:    "test-refresh-secret",
		ActivationTokenSecret: "test-activation-secret",
		AccessTokenTTL:        5 * time.Minute,
		RefreshTokenTTL:       7 * 24 * time.Hour,
		ActivationTokenTTL:    5 * time.Minute,
		CookieDomain:          "localhost",
	}
}

// TestServer wires the whole stack against in-memory fakes and miniredis.
type TestServer struct {
	Server   *httptest.Server
	Users    *FakeUserRepo
	Mailer   *FakeMailer
	Cache    cache.SessionCache
	Redis    *miniredis.Miniredis
	Codec    *token.Codec
	Cfg      *config.Config
	Services *service.Services
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := TestConfig()
	users := NewFakeUserRepo()
	mailer := &FakeMailer{}

	mr := miniredis.RunT(t)
	sessionCache := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	codec := token.NewCodec(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.ActivationTokenSecret)
	services := service.NewServices(users, sessionCache, codec, mailer, cfg)

	server := httptest.NewServer(api.NewRouter(services, cfg))
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		Users:    users,
		Mailer:   mailer,
		Cache:    sessionCache,
		Redis:    mr,
		Codec:    codec,
		Cfg:      cfg,
		Services: services,
	}
}

// APIURL builds a full URL for a path under /api/v1.
func (ts *TestServer) APIURL(path string) string {
	return ts.Server.URL + "/api/v1" + path
}

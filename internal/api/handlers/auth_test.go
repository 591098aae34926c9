package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dom/course-catalog/internal/domain"
	"github.com/dom/course-catalog/internal/testutil"
	"github.com/dom/course-catalog/internal/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, url string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return body
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func login(t *testing.T, ts *testutil.TestServer, email, password string) *http.Response {
	t.Helper()

	resp := postJSON(t, ts.APIURL("/user/login"), map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        map[string]string
		setup          func()
		expectedStatus int
		checkResponse  func(*testing.T, map[string]any)
	}{
		{
			name: "successful registration",
			request: map[string]string{
				"name":     "Ada",
				"email":    "ada@example.com",
				"password": "hunter22",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["success"])
				assert.NotEmpty(t, body["activationToken"])
				// the code goes out by email only
				assert.NotContains(t, body, "activationCode")
				assert.Equal(t, 0, ts.Users.Count())
			},
		},
		{
			name: "duplicate email",
			request: map[string]string{
				"name":     "Ada",
				"email":    "taken@example.com",
				"password": "hunter22",
			},
			setup: func() {
				testutil.NewUserBuilder().WithEmail("taken@example.com").Build(t, ts.Users)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing password",
			request: map[string]string{
				"name":  "Ada",
				"email": "ada@example.com",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty body",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}

			resp := postJSON(t, ts.APIURL("/user/register"), tt.request)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				tt.checkResponse(t, decodeBody(t, resp))
			}
		})
	}
}

func TestAuthHandler_Register_MailFailure(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ts.Mailer.Err = domain.ErrMailDelivery

	resp := postJSON(t, ts.APIURL("/user/register"), map[string]string{
		"name":     "Ada",
		"email":    "a@x.com",
		"password": "pw",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, 0, ts.Users.Count())
}

func TestAuthHandler_ActivateFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/user/register"), map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	activationToken := decodeBody(t, resp)["activationToken"].(string)
	code := ts.Mailer.LastCode()
	require.NotEmpty(t, code)

	// wrong code first
	resp = postJSON(t, ts.APIURL("/user/activate"), map[string]string{
		"activationToken": activationToken,
		"activationCode":  "999999",
	})
	if code == "999999" {
		t.Skip("collision with generated code")
	}
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// then the correct one
	resp = postJSON(t, ts.APIURL("/user/activate"), map[string]string{
		"activationToken": activationToken,
		"activationCode":  code,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, ts.Users.Count())

	// activation does not log in: login still required and works
	resp = login(t, ts, "ada@example.com", "hunter22")
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access_token"])
}

func TestAuthHandler_Activate_InvalidToken(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/user/activate"), map[string]string{
		"activationToken": "garbage",
		"activationCode":  "123456",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, password := testutil.NewUserBuilder().WithEmail("ada@example.com").Build(t, ts.Users)

	resp := login(t, ts, user.Email, password)
	body := decodeBody(t, resp)

	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["access_token"])

	// user object never carries a password field
	userBody := body["user"].(map[string]any)
	assert.Equal(t, user.Email, userBody["email"])
	assert.NotContains(t, userBody, "password")
	assert.NotContains(t, userBody, "passwordHash")

	// both cookies set, HTTP-only, lifetimes matching the configured TTLs
	access := cookieByName(resp, "access_token")
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, int(ts.Cfg.AccessTokenTTL.Seconds()), access.MaxAge)

	refresh := cookieByName(resp, "refresh_token")
	require.NotNil(t, refresh)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, int(ts.Cfg.RefreshTokenTTL.Seconds()), refresh.MaxAge)
}

func TestAuthHandler_Login_UniformFailureMessage(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, _ := testutil.NewUserBuilder().WithEmail("ada@example.com").Build(t, ts.Users)

	wrongPassword := postJSON(t, ts.APIURL("/user/login"), map[string]string{
		"email":    user.Email,
		"password": "wrong",
	})
	unknownEmail := postJSON(t, ts.APIURL("/user/login"), map[string]string{
		"email":    "nobody@example.com",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)
	assert.Equal(t,
		decodeBody(t, wrongPassword)["message"],
		decodeBody(t, unknownEmail)["message"])
}

func TestAuthHandler_SocialAuth(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/user/social-auth"), map[string]string{
		"email":  "ada@example.com",
		"name":   "Ada",
		"avatar": "https://cdn.example.com/ada.png",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, ts.Users.Count())

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access_token"])
	assert.NotNil(t, cookieByName(resp, "refresh_token"))
}

func TestAuthHandler_Refresh(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, password := testutil.NewUserBuilder().Build(t, ts.Users)
	loginResp := login(t, ts, user.Email, password)
	refreshCookie := cookieByName(loginResp, "refresh_token")
	require.NotNil(t, refreshCookie)

	resp := getJSON(t, ts.APIURL("/user/refresh"), refreshCookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	newAccess := body["access_token"].(string)
	assert.NotEmpty(t, newAccess)

	subject, err := ts.Codec.VerifySession(token.KindAccess, newAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	// a fresh access cookie is emitted too
	assert.NotNil(t, cookieByName(resp, "access_token"))
}

func TestAuthHandler_Refresh_Failures(t *testing.T) {
	ts := testutil.NewTestServer(t)

	// no cookie at all
	resp := getJSON(t, ts.APIURL("/user/refresh"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// forged cookie
	resp = getJSON(t, ts.APIURL("/user/refresh"), &http.Cookie{Name: "refresh_token", Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// expired refresh token
	expired, err := ts.Codec.IssueSession(token.KindRefresh, uuid.New(), -time.Minute)
	require.NoError(t, err)
	resp = getJSON(t, ts.APIURL("/user/refresh"), &http.Cookie{Name: "refresh_token", Value: expired})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandler_Logout_Idempotent(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, password := testutil.NewUserBuilder().Build(t, ts.Users)
	loginResp := login(t, ts, user.Email, password)
	accessCookie := cookieByName(loginResp, "access_token")
	require.NotNil(t, accessCookie)
	require.True(t, ts.Redis.Exists(user.ID.String()))

	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts.APIURL("/user/logout"), map[string]string{}, accessCookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		// cookies expired immediately
		cleared := cookieByName(resp, "access_token")
		require.NotNil(t, cleared)
		assert.Less(t, cleared.MaxAge, 0)
	}

	assert.False(t, ts.Redis.Exists(user.ID.String()))
}

func TestAuthHandler_Me(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, password := testutil.NewUserBuilder().WithEmail("ada@example.com").Build(t, ts.Users)
	loginResp := login(t, ts, user.Email, password)
	accessCookie := cookieByName(loginResp, "access_token")

	resp := getJSON(t, ts.APIURL("/user/me"), accessCookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	userBody := body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", userBody["email"])
}

func TestAuthHandler_Me_BearerFallback(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, _ := testutil.NewUserBuilder().Build(t, ts.Users)
	access, err := ts.Codec.IssueSession(token.KindAccess, user.ID, time.Minute)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.APIURL("/user/me"), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthHandler_Me_ExpiredToken(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, _ := testutil.NewUserBuilder().Build(t, ts.Users)
	expired, err := ts.Codec.IssueSession(token.KindAccess, user.ID, -time.Minute)
	require.NoError(t, err)

	resp := getJSON(t, ts.APIURL("/user/me"), &http.Cookie{Name: "access_token", Value: expired})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandler_Me_DeletedUser(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, password := testutil.NewUserBuilder().Build(t, ts.Users)
	loginResp := login(t, ts, user.Email, password)
	accessCookie := cookieByName(loginResp, "access_token")

	// delete the user and drop the cached snapshot; the still-valid access
	// token must now resolve to nothing
	require.NoError(t, ts.Users.Delete(context.Background(), user.ID))
	ts.Redis.Del(user.ID.String())

	resp := getJSON(t, ts.APIURL("/user/me"), accessCookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthHandler_Me_NoToken(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := getJSON(t, ts.APIURL("/user/me"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/papershelf/papershelf/backend/go-services/internal/config"
	"github.com/papershelf/papershelf/backend/go-services/internal/sessions"
	"github.com/papershelf/papershelf/backend/go-services/internal/tokens"
	"github.com/papershelf/papershelf/backend/go-services/internal/users"
	"github.com/papershelf/papershelf/backend/go-services/pkg/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type tokenResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	iss, err := tokens.NewIssuer(config.JWTConfig{Secret: "handler-test-secret-with-enough-bytes", AccessTokenTTL: 15 * time.Minute})
	require.NoError(t, err)
	usersSvc := users.NewService(users.NewMemoryUserRepository())
	sessSvc := sessions.NewService(sessions.NewMemoryRepository(), time.Hour)

	r := gin.New()
	NewAuthHandler(usersSvc, sessSvc, iss).Register(r.Group("/api"), middleware.AuthMiddleware(iss, usersSvc))
	return r
}

func call(r *gin.Engine, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r *gin.Engine) tokenResponse {
	t.Helper()
	w := call(r, http.MethodPost, "/api/users/register", "", `{"name":"Uma","email":"Uma@Example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegisterLoginMe(t *testing.T) {
	r := newAuthRouter(t)
	reg := register(t, r)
	require.Equal(t, "uma@example.com", reg.User.Email)
	require.NotEmpty(t, reg.AccessToken)
	require.NotEmpty(t, reg.RefreshToken)
	require.Equal(t, 900, reg.ExpiresIn)
	require.NotContains(t, call(r, http.MethodGet, "/api/users/me", reg.AccessToken, "").Body.String(), "password")

	w := call(r, http.MethodPost, "/api/users/register", "", `{"name":"Other","email":"uma@example.com","password":"another one"}`)
	require.Equal(t, http.StatusConflict, w.Code)

	w = call(r, http.MethodPost, "/api/users/register", "", `{"name":"Short","email":"s@example.com","password":"abc"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, http.MethodPost, "/api/users/login", "", `{"email":"uma@example.com","password":"wrong password"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(r, http.MethodPost, "/api/users/login", "", `{"email":"UMA@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var login tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.Equal(t, reg.User.ID, login.User.ID)

	w = call(r, http.MethodGet, "/api/users/me", login.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), reg.User.ID)

	require.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/users/me", "", "").Code)
	require.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/users/me", "garbage", "").Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	r := newAuthRouter(t)
	reg := register(t, r)

	w := call(r, http.MethodPost, "/api/users/refresh", "", `{"refresh_token":"`+reg.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEqual(t, reg.RefreshToken, resp.RefreshToken)

	w = call(r, http.MethodPost, "/api/users/refresh", "", `{"refresh_token":"`+reg.RefreshToken+`"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(r, http.MethodPost, "/api/users/refresh", "", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutBlacklistsAccessAndDeletesRefresh(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	sessions.SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	defer sessions.SetBlacklistClient(nil)

	r := newAuthRouter(t)
	reg := register(t, r)
	require.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/users/me", reg.AccessToken, "").Code)

	w := call(r, http.MethodPost, "/api/users/logout", reg.AccessToken, `{"refresh_token":"`+reg.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, m.Keys(), 1)

	require.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/users/me", reg.AccessToken, "").Code)
	w = call(r, http.MethodPost, "/api/users/refresh", "", `{"refresh_token":"`+reg.RefreshToken+`"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

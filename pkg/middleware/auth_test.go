package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/papershelf/papershelf/backend/go-services/internal/models"
	"github.com/papershelf/papershelf/backend/go-services/internal/sessions"
	"github.com/papershelf/papershelf/backend/go-services/internal/users"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier accepts exactly one token string.
type fakeVerifier struct{ accept, sub string }

func (f *fakeVerifier) Verify(_ context.Context, raw string) (Token, error) {
	if raw == f.accept {
		return &fakeToken{data: map[string]interface{}{"sub": f.sub, "email": "test@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type fakeResolver struct{ err error }

func (r *fakeResolver) ResolveClaims(_ context.Context, claims map[string]interface{}) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	sub, _ := claims["sub"].(string)
	return &models.User{ID: "id-" + sub, Sub: sub, Name: "Test"}, nil
}

func serve(t *testing.T, h gin.HandlerFunc, header string) *httptest.ResponseRecorder {
	t.Helper()
	g := gin.New()
	g.GET("/", h, func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"claims": Claims(c), "user": u})
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_RejectsBadHeaders(t *testing.T) {
	h := AuthMiddleware(&fakeVerifier{accept: "goodtoken", sub: "user1"}, nil)
	require.Equal(t, http.StatusUnauthorized, serve(t, h, "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(t, h, "BadHeader").Code)
	require.Equal(t, http.StatusUnauthorized, serve(t, h, "Bearer wrong").Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rw := serve(t, AuthMiddleware(&fakeVerifier{accept: "goodtoken", sub: "user1"}, &fakeResolver{}), "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)

	var got struct {
		Claims map[string]interface{} `json:"claims"`
		User   *models.User           `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "user1", got.Claims["sub"])
	require.Equal(t, "id-user1", got.User.ID)
}

func TestAuthMiddleware_ResolverErrors(t *testing.T) {
	ver := &fakeVerifier{accept: "goodtoken", sub: "user1"}
	rw := serve(t, AuthMiddleware(ver, &fakeResolver{err: users.ErrNotFound}), "Bearer goodtoken")
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	rw = serve(t, AuthMiddleware(ver, &fakeResolver{err: errors.New("mongo down")}), "Bearer goodtoken")
	require.Equal(t, http.StatusInternalServerError, rw.Code)
}

func TestAuthMiddleware_RejectsBlacklistedToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	sessions.SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	defer sessions.SetBlacklistClient(nil)

	h := AuthMiddleware(&fakeVerifier{accept: "goodtoken", sub: "user1"}, nil)
	require.Equal(t, http.StatusOK, serve(t, h, "Bearer goodtoken").Code)

	require.NoError(t, sessions.BlacklistAccessToken(context.Background(), "goodtoken", 5*time.Second))
	rw := serve(t, h, "Bearer goodtoken")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "revoked")
}

func TestChain(t *testing.T) {
	ch := Chain{&fakeVerifier{accept: "a", sub: "first"}, nil, &fakeVerifier{accept: "b", sub: "second"}}
	ctx := context.Background()

	tok, err := ch.Verify(ctx, "b")
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "second", claims["sub"])

	_, err = ch.Verify(ctx, "c")
	require.Error(t, err)

	_, err = Chain{}.Verify(ctx, "a")
	require.Error(t, err)
}

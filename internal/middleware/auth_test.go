package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zeeeeby/cathouse-server/internal/apperr"
	"github.com/zeeeeby/cathouse-server/internal/models"
	"github.com/zeeeeby/cathouse-server/internal/repo"
	"github.com/zeeeeby/cathouse-server/internal/tokens"
)

var testSecret = []byte("test-secret")

func newTestAuth(t *testing.T) *Auth {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))

	return New(testSecret, repo.New(db))
}

func createUser(t *testing.T, m *Auth, handle string, role models.RoleName) uint {
	t.Helper()

	user := &models.User{Username: handle, PasswordHash: "x", FirstName: "T", LastName: "U"}
	require.NoError(t, m.Store.CreateUserWithRole(context.Background(), user, role))
	return user.ID
}

func runRequest(m *Auth, mw echo.MiddlewareFunc, authHeader string, handlerRan *bool) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		*handlerRan = true
		return c.NoContent(http.StatusOK)
	})
	return rec, handler(c)
}

func TestAuthenticate_Required_MissingHeader(t *testing.T) {
	t.Parallel()

	m := newTestAuth(t)
	var ran bool
	_, err := runRequest(m, m.Authenticate(true), "", &ran)

	require.Error(t, err)
	assert.False(t, ran)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestAuthenticate_Optional_MissingHeader_PassesAnonymously(t *testing.T) {
	t.Parallel()

	m := newTestAuth(t)
	var ran bool
	_, err := runRequest(m, m.Authenticate(false), "", &ran)

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestAuthenticate_InvalidToken_RejectedInBothModes(t *testing.T) {
	t.Parallel()

	m := newTestAuth(t)
	for _, required := range []bool{true, false} {
		var ran bool
		_, err := runRequest(m, m.Authenticate(required), "Bearer garbage", &ran)

		require.Error(t, err)
		assert.False(t, ran)
		assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	t.Parallel()

	m := newTestAuth(t)
	token, err := tokens.NewAccessToken(1, -time.Minute, testSecret)
	require.NoError(t, err)

	var ran bool
	_, err = runRequest(m, m.Authenticate(true), "Bearer "+token, &ran)

	require.Error(t, err)
	assert.False(t, ran)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestAuthenticate_ValidToken_SetsIdentity(t *testing.T) {
	t.Parallel()

	m := newTestAuth(t)
	token, err := tokens.NewAccessToken(42, time.Hour, testSecret)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.Authenticate(true)(func(c echo.Context) error {
		userID, ok := UserID(c)
		assert.True(t, ok)
		assert.Equal(t, uint(42), userID)
		assert.Equal(t, token, c.Get(ContextAccessToken))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	m := newTestAuth(t)
	adminID := createUser(t, m, "@admin", models.RoleAdmin)
	userID := createUser(t, m, "@user", models.RoleUser)

	run := func(id uint) (bool, error) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextUserID, id)

		var ran bool
		handler := m.RequireRole(models.RoleAdmin)(func(c echo.Context) error {
			ran = true
			return c.NoContent(http.StatusOK)
		})
		return ran, handler(c)
	}

	t.Run("allowed role proceeds", func(t *testing.T) {
		ran, err := run(adminID)
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("role outside the set is forbidden", func(t *testing.T) {
		ran, err := run(userID)
		require.Error(t, err)
		assert.False(t, ran)
		assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		var ran bool
		handler := m.RequireRole(models.RoleAdmin)(func(c echo.Context) error {
			ran = true
			return nil
		})
		err := handler(c)
		require.Error(t, err)
		assert.False(t, ran)
		assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	})
}

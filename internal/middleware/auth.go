package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zeeeeby/cathouse-server/internal/apperr"
	"github.com/zeeeeby/cathouse-server/internal/models"
	"github.com/zeeeeby/cathouse-server/internal/repo"
	"github.com/zeeeeby/cathouse-server/internal/tokens"
)

const (
	ContextUserID      = "user_id"
	ContextAccessToken = "access_token"
)

type Auth struct {
	Secret []byte
	Store  *repo.Store
}

func New(secret []byte, store *repo.Store) *Auth {
	return &Auth{Secret: secret, Store: store}
}

// Authenticate verifies the bearer access token and attaches the resolved
// identity to the request context. In optional mode a request without an
// Authorization header passes through anonymously; a present but invalid
// token is rejected in both modes.
func (m *Auth) Authenticate(required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request())
			if raw == "" {
				if required {
					return apperr.New(apperr.Unauthorized, "unauthorized")
				}
				return next(c)
			}

			claims, err := tokens.ParseAccess(raw, m.Secret)
			if err != nil {
				return apperr.Wrap(apperr.Unauthorized, "unauthorized", err)
			}
			userID, err := claims.UserID()
			if err != nil {
				return apperr.Wrap(apperr.Unauthorized, "unauthorized", err)
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextAccessToken, raw)
			return next(c)
		}
	}
}

// RequireRole permits the request only when the authenticated user's current
// role, resolved through the credential store, is in the allow-list. It must
// run after Authenticate. Returning the error is what stops the chain; there
// is no path on which a denied request reaches the handler.
func (m *Auth) RequireRole(roles ...models.RoleName) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := UserID(c)
			if !ok {
				return apperr.New(apperr.Unauthorized, "unauthorized")
			}

			role, err := m.Store.RoleForUser(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return apperr.New(apperr.Forbidden, "permission denied")
				}
				return apperr.Wrap(apperr.Internal, "internal server error", err)
			}

			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return apperr.New(apperr.Forbidden, "permission denied")
		}
	}
}

// UserID reports the authenticated user id set by Authenticate.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ContextUserID).(uint)
	return id, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zeeeeby/cathouse-server/internal/apperr"
	"github.com/zeeeeby/cathouse-server/internal/logging"
	"github.com/zeeeeby/cathouse-server/internal/middleware"
	"github.com/zeeeeby/cathouse-server/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return apperr.New(apperr.BadRequest, "invalid body")
	}

	pair, err := h.Svc.SignUp(ctx, service.SignUpInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}

	c.SetCookie(RefreshCookie(pair.RefreshToken))
	return c.JSON(http.StatusOK, echo.Map{"token": pair.AccessToken})
}

func (h *AuthHTTP) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signin")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("signin_error", "status", 400, "error", err)
		return apperr.New(apperr.BadRequest, "invalid body")
	}

	pair, err := h.Svc.SignIn(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(RefreshCookie(pair.RefreshToken))
	return c.JSON(http.StatusOK, echo.Map{"token": pair.AccessToken})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return apperr.New(apperr.Unauthorized, "refresh token missing")
	}

	pair, err := h.Svc.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return err
	}

	c.SetCookie(RefreshCookie(pair.RefreshToken))
	return c.JSON(http.StatusOK, echo.Map{"token": pair.AccessToken})
}

// SignOut clears the refresh cookie. It cannot invalidate an access token
// already issued; that one expires on its own.
func (h *AuthHTTP) SignOut(c echo.Context) error {
	c.SetCookie(ClearRefreshCookie())
	return c.JSON(http.StatusOK, echo.Map{"message": "signed out successfully"})
}

func (h *AuthHTTP) VerifyToken(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return apperr.New(apperr.Unauthorized, "unauthorized")
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": userID})
}

func (h *AuthHTTP) VerifyUserName(c echo.Context) error {
	username := c.QueryParam("username")

	available, err := h.Svc.HandleAvailable(c.Request().Context(), username)
	if err != nil {
		return err
	}
	if !available {
		return apperr.New(apperr.Conflict, "user already exists")
	}
	return c.JSON(http.StatusOK, echo.Map{"available": true})
}

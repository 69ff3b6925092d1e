package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zeeeeby/cathouse-server/internal/middleware"
	"github.com/zeeeeby/cathouse-server/internal/models"
)

type Deps struct {
	Auth  *AuthHTTP
	User  *UserHTTP
	Media *MediaHTTP
	MW    *middleware.Auth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")
	auth.POST("/signup", d.Auth.SignUp)
	auth.POST("/signin", d.Auth.SignIn)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.GET("/signout", d.Auth.SignOut, d.MW.Authenticate(true))
	auth.GET("/verifyToken", d.Auth.VerifyToken, d.MW.Authenticate(true))
	auth.GET("/verifyUserName", d.Auth.VerifyUserName)

	user := e.Group("/user")
	user.GET("/search", d.User.SearchUsers, d.MW.Authenticate(false))
	user.POST("/:id/giveRole", d.User.GiveRole,
		d.MW.Authenticate(true), d.MW.RequireRole(models.RoleAdmin))

	media := e.Group("/media")
	media.GET("/:path", d.Media.Get)
	media.POST("", d.Media.Upload, d.MW.Authenticate(true))
	media.POST("/attach", d.Media.Attach, d.MW.Authenticate(true))
	media.DELETE("", d.Media.Remove, d.MW.Authenticate(true))
}

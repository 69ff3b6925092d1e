package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zeeeeby/cathouse-server/internal/apperr"
)

// ErrorHandler is the single place errors become responses. Clients see a
// status and a message; everything else goes to the log.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var ae *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.Kind.HTTPStatus()
			message = ae.Message
		case errors.As(err, &he):
			status = he.Code
			if s, ok := he.Message.(string); ok {
				message = s
			}
		}

		if status >= 500 {
			log.Error("request failed", "status", status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, echo.Map{"message": message})
	}
}

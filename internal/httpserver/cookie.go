package httpserver

import (
	"net/http"
	"time"
)

const RefreshCookieName = "refresh_token"

// RefreshCookie is a session cookie: the token's own expiry bounds its
// lifetime, so no Max-Age is set. SameSite=None because the API is consumed
// cross-origin, which also forces Secure.
func RefreshCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func ClearRefreshCookie() *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

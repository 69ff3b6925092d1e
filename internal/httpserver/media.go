package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zeeeeby/cathouse-server/internal/apperr"
	"github.com/zeeeeby/cathouse-server/internal/logging"
	"github.com/zeeeeby/cathouse-server/internal/mediaproxy"
	"github.com/zeeeeby/cathouse-server/internal/middleware"
	"github.com/zeeeeby/cathouse-server/internal/models"
	"github.com/zeeeeby/cathouse-server/internal/repo"
)

type MediaHTTP struct {
	Store             *repo.Store
	Client            *mediaproxy.Client
	PermittedReferers []string
}

// Get proxies a stored image to permitted frontends only; anyone else gets
// the same 404 a missing file would.
func (h *MediaHTTP) Get(c echo.Context) error {
	referer := c.Request().Referer()
	if !h.refererPermitted(referer) {
		return apperr.New(apperr.NotFound, "not found")
	}
	if h.Client == nil {
		return apperr.New(apperr.Internal, "media store is not available")
	}

	contentType, body, err := h.Client.Fetch(c.Request().Context(), c.Param("path"))
	if err != nil {
		return apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	return c.Blob(http.StatusOK, contentType, body)
}

func (h *MediaHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "media_upload")

	if h.Client == nil {
		return apperr.New(apperr.Internal, "media store is not available")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return apperr.New(apperr.BadRequest, "0 files uploaded")
	}

	var names []string
	for _, files := range form.File {
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				return apperr.Wrap(apperr.Internal, "internal server error", err)
			}
			err = h.Client.Upload(ctx, fh.Filename, f)
			f.Close()
			if err != nil {
				l.Error("upload_failed", "filename", fh.Filename, "error", err)
				return apperr.Wrap(apperr.Internal, "internal server error", err)
			}
			names = append(names, fh.Filename)
		}
	}
	if len(names) == 0 {
		return apperr.New(apperr.BadRequest, "0 files uploaded")
	}

	return c.JSON(http.StatusOK, names)
}

func (h *MediaHTTP) Attach(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return apperr.New(apperr.Unauthorized, "unauthorized")
	}

	var req struct {
		Body      []string `json:"body"`
		PostID    *uint    `json:"post_id"`
		CommentID *uint    `json:"comment_id"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.BadRequest, "invalid body")
	}

	images := make([]models.ProfileImage, 0, len(req.Body))
	for _, url := range req.Body {
		images = append(images, models.ProfileImage{
			URL:       url,
			AuthorID:  userID,
			PostID:    req.PostID,
			CommentID: req.CommentID,
		})
	}

	saved, err := h.Store.SaveProfileImages(c.Request().Context(), images)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *MediaHTTP) Remove(c echo.Context) error {
	var urls []string
	if err := c.Bind(&urls); err != nil {
		return apperr.New(apperr.BadRequest, "invalid body")
	}

	if err := h.Store.DeleteProfileImages(c.Request().Context(), urls); err != nil {
		return apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *MediaHTTP) refererPermitted(referer string) bool {
	for _, p := range h.PermittedReferers {
		if referer == p {
			return true
		}
	}
	return false
}

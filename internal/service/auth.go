// Package service implements the session manager: sign-up, sign-in, token
// refresh, handle availability, and role granting.
//
// Refresh tokens are not persisted. Rotation is stateless: every refresh
// mints a new pair from the presented token's identity, and sign-out only
// clears the cookie. The trade-off is that a leaked refresh token cannot be
// revoked before its natural expiry.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeeeeby/cathouse-server/internal/apperr"
	"github.com/zeeeeby/cathouse-server/internal/events"
	"github.com/zeeeeby/cathouse-server/internal/hash"
	"github.com/zeeeeby/cathouse-server/internal/logging"
	"github.com/zeeeeby/cathouse-server/internal/models"
	"github.com/zeeeeby/cathouse-server/internal/repo"
	"github.com/zeeeeby/cathouse-server/internal/search"
	"github.com/zeeeeby/cathouse-server/internal/tokens"
)

const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 20 * 24 * time.Hour

	// Login handles are stored with this prefix so they can never collide
	// with display names.
	handlePrefix = "@"
)

type AuthService struct {
	Store  *repo.Store
	Hasher *hash.Hasher
	Secret []byte

	// Optional collaborators; nil disables them.
	Events *events.Producer
	Search *search.Users
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type SignUpInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	AvatarURL string
}

func Handle(username string) string { return handlePrefix + username }

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	if in.Username == "" || in.Password == "" {
		return nil, apperr.New(apperr.Unauthorized, "incorrect username or password")
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.New(apperr.Unauthorized, "incorrect user data")
	}

	handle := Handle(in.Username)

	// Fast path only: the unique constraint inside CreateUserWithRole is
	// what actually decides conflicts.
	if _, err := s.Store.FindUserByHandle(ctx, handle); err == nil {
		return nil, apperr.New(apperr.Conflict, "user with this username already exists")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	pwHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		l.Error("signup_failed", "reason", "hash", "error", err)
		return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	user := models.User{
		Username:     handle,
		PasswordHash: pwHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		AvatarURL:    in.AvatarURL,
	}
	if err := s.Store.CreateUserWithRole(ctx, &user, models.RoleUser); err != nil {
		if errors.Is(err, repo.ErrDuplicateHandle) {
			return nil, apperr.New(apperr.Conflict, "user with this username already exists")
		}
		l.Error("signup_failed", "reason", "db", "error", err)
		return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		l.Error("signup_failed", "reason", "sign", "error", err)
		return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	s.publish(ctx, "user_registered", &user)
	s.index(ctx, &user)

	l.Info("signup_success", "user_id", user.ID)
	return pair, nil
}

func (s *AuthService) SignIn(ctx context.Context, username, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signin")

	user, err := s.Store.FindUserByHandle(ctx, Handle(username))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "user was not found")
		}
		l.Error("signin_failed", "reason", "db", "error", err)
		return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	if !s.Hasher.Verify(user.PasswordHash, password) {
		l.Warn("signin_failed", "reason", "bad_password", "user_id", user.ID)
		return nil, apperr.New(apperr.Unauthorized, "could not sign in")
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		l.Error("signin_failed", "reason", "sign", "error", err)
		return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	s.publish(ctx, "user_signed_in", user)

	l.Info("signin_success", "user_id", user.ID)
	return pair, nil
}

// Refresh verifies the presented refresh token and mints a fresh pair bound
// to the same identity. Any verification failure is Unauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := tokens.ParseRefresh(refreshToken, s.Secret)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid refresh token", err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid refresh token", err)
	}

	pair, err := s.issuePair(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	return pair, nil
}

func (s *AuthService) HandleAvailable(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, apperr.New(apperr.BadRequest, "username is required")
	}
	_, err := s.Store.FindUserByHandle(ctx, Handle(username))
	if err == nil {
		return false, nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return true, nil
	}
	return false, apperr.Wrap(apperr.Internal, "internal server error", err)
}

func (s *AuthService) GrantRole(ctx context.Context, userID uint, role models.RoleName) error {
	l := logging.FromContext(ctx).With("svc", "auth.grant_role")

	if !role.Valid() {
		return apperr.New(apperr.BadRequest, "unknown role")
	}
	if err := s.Store.GrantRole(ctx, userID, role); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return apperr.New(apperr.NotFound, "user was not found")
		case errors.Is(err, repo.ErrUnknownRole):
			return apperr.New(apperr.BadRequest, "unknown role")
		}
		l.Error("grant_role_failed", "error", err)
		return apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	s.publishEvent(ctx, fmt.Sprint(userID), map[string]interface{}{
		"type":    "role_granted",
		"user_id": userID,
		"role":    role,
	})
	l.Info("role_granted", "user_id", userID, "role", role)
	return nil
}

func (s *AuthService) issuePair(userID uint) (*TokenPair, error) {
	access, err := tokens.NewAccessToken(userID, AccessTokenTTL, s.Secret)
	if err != nil {
		return nil, err
	}
	refresh, err := tokens.NewRefreshToken(userID, RefreshTokenTTL, s.Secret)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, user *models.User) {
	s.publishEvent(ctx, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     eventType,
		"user_id":  user.ID,
		"username": user.Username,
	})
}

func (s *AuthService) publishEvent(ctx context.Context, key string, event map[string]interface{}) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "error", err)
	}
}

func (s *AuthService) index(ctx context.Context, user *models.User) {
	if s.Search == nil {
		return
	}
	doc := search.UserDoc{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		AvatarURL: user.AvatarURL,
	}
	if err := s.Search.IndexUser(ctx, doc); err != nil {
		logging.FromContext(ctx).Warn("user_index_failed", "user_id", user.ID, "error", err)
	}
}

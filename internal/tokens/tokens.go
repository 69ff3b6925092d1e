// Package tokens is the signed-token codec: it issues and verifies the
// HS256 claims both session tokens are built from. One symmetric secret
// signs both token classes; the "use" claim keeps an access token from
// being replayed as a refresh token and vice versa.
package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

var (
	ErrExpired      = errors.New("token expired")
	ErrBadSignature = errors.New("invalid token signature")
	ErrMalformed    = errors.New("malformed token")
	ErrWrongUse     = errors.New("token issued for a different use")
)

type Claims struct {
	Use string `json:"use"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrMalformed
	}
	return uint(id), nil
}

func NewAccessToken(userID uint, ttl time.Duration, secret []byte) (string, error) {
	return sign(userID, UseAccess, ttl, secret, "")
}

// NewRefreshToken carries a uuid JTI so two tokens minted for the same user
// in the same second are still distinct.
func NewRefreshToken(userID uint, ttl time.Duration, secret []byte) (string, error) {
	return sign(userID, UseRefresh, ttl, secret, uuid.NewString())
}

func sign(userID uint, use string, ttl time.Duration, secret []byte, jti string) (string, error) {
	now := time.Now()
	claims := Claims{
		Use: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseAccess(tokenStr string, secret []byte) (*Claims, error) {
	return parse(tokenStr, UseAccess, secret)
}

func ParseRefresh(tokenStr string, secret []byte) (*Claims, error) {
	return parse(tokenStr, UseRefresh, secret)
}

func parse(tokenStr, use string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrBadSignature
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, ErrMalformed
		}
	}
	if !tkn.Valid {
		return nil, ErrMalformed
	}
	if claims.Use != use {
		return nil, ErrWrongUse
	}
	return &claims, nil
}

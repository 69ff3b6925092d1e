package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("password must not be empty")

type Hasher struct {
	Cost int
}

// New clamps out-of-range costs to the bcrypt default.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

func (h *Hasher) Verify(hashDigest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashDigest), []byte(password)) == nil
}

package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt. Cost is exposed so tests can use bcrypt.MinCost.
type Hasher struct {
	Cost int
}

func NewHasher() *Hasher {
	return &Hasher{Cost: bcrypt.DefaultCost}
}

func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether password matches hash. A malformed hash is an
// error; a plain mismatch is not.
func (h *Hasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"masterboxer.com/project-instaclone/apperrors"
)

// MaxPasswordBytes is the longest input bcrypt accepts
const MaxPasswordBytes = 72

// PasswordHasher hashes and checks credentials with bcrypt
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperrors.Wrap(apperrors.KindValidation, "Password is too long.", err)
	}
	if err != nil {
		return "", apperrors.Internal("failed to hash password", err)
	}
	return string(hashed), nil
}

// Check reports whether password matches hash. A mismatch is not an error.
func (h *PasswordHasher) Check(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, apperrors.Internal("failed to compare password", err)
	}
}

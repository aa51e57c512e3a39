// Package utils holds small helpers shared by the account service and the
// handlers: password hashing and slug derivation.
package utils

import (
    "errors"

    "golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when asked to hash an empty password.
var ErrEmptyPassword = errors.New("password is empty")

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword hashes plain with bcrypt.  A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost (10).  Inputs longer than
// MaxPasswordBytes fail with bcrypt.ErrPasswordTooLong.
func HashPassword(plain string, cost int) (string, error) {
    if plain == "" {
        return "", ErrEmptyPassword
    }
    if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
        cost = bcrypt.DefaultCost
    }
    b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// VerifyPassword compares plain against a stored hash.  An empty hash
// (federated-only account) never matches.
func VerifyPassword(hash, plain string) bool {
    if hash == "" {
        return false
    }
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

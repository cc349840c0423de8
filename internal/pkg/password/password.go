// Package password wraps bcrypt for login credentials.
package password

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is enforced on sign-up.
const MinLength = 8

// Cost is the bcrypt work factor for new hashes.
var Cost = 12

// ErrTooLong is returned for inputs bcrypt would silently truncate.
var ErrTooLong = errors.New("password longer than 72 bytes")

// dummy is compared against when the account does not exist so that
// unknown emails take as long as wrong passwords.
var (
	dummyOnce sync.Once
	dummy     []byte
)

// Hash returns the bcrypt hash of password.
func Hash(password string) (string, error) {
	if len(password) > 72 {
		return "", ErrTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	return string(b), err
}

// Verify compares password with hash.
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Burn spends one comparison's worth of time and always fails.
func Burn(password string) bool {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), Cost)
	})
	_ = bcrypt.CompareHashAndPassword(dummy, []byte(password))
	return false
}

// NeedsRehash reports whether hash was produced with a different cost.
func NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	return err != nil || c != Cost
}

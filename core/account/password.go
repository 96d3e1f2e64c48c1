package account

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// SetPassword hashes pwd with the given bcrypt cost and stores the result on
// the account. The salt lives inside the hash, so verification needs nothing
// but the stored value.
func (a *Account) SetPassword(pwd string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), cost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	a.PasswordHash = hash
	return nil
}

// CheckPassword reports whether pwd matches the stored hash. A wrong password
// is (false, nil); a non-nil error means the stored hash itself is unusable,
// which is a configuration fault, not a credential failure.
func (a *Account) CheckPassword(pwd string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
	if err == nil {
		return true, nil
	}
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	return false, errors.Wrap(err, "comparing password hash")
}

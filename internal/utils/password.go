package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a password.  A cost outside bcrypt's accepted
// range falls back to bcrypt.DefaultCost so a bad BCRYPT_COST cannot break
// registration.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash.  Accounts without a
// stored hash never verify.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

package hash

import "golang.org/x/crypto/bcrypt"

// bcrypt only looks at the first 72 bytes of its input. Longer passwords are
// truncated before hashing and verification, so two passwords that differ
// only after byte 72 produce the same hash. Accepted limitation of the
// algorithm, kept deliberately.
const maxPasswordBytes = 72

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword(truncate(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// CheckPassword reports whether password matches hash. Malformed digests
// never error out, they just fail the check.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(password)) == nil
}

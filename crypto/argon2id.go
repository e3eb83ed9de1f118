package crypto

import (
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/jkobber/bubble-quiz/domain"
)

// Argon2idHasher hashes account passwords into PHC strings
// ($argon2id$v=19$m=...,t=...,p=...$salt$key).
type Argon2idHasher struct {
	params *argon2id.Params
}

// NewArgon2idHasher builds a hasher with the given cost. memory is in KiB.
func NewArgon2idHasher(time, memory, keyLength, saltLength uint32, parallelism uint8) *Argon2idHasher {
	return &Argon2idHasher{
		params: &argon2id.Params{
			Memory:      memory,
			Iterations:  time,
			Parallelism: parallelism,
			SaltLength:  saltLength,
			KeyLength:   keyLength,
		},
	}
}

// DefaultArgon2idHasher is the production cost: 3 passes over 64 MiB.
func DefaultArgon2idHasher() *Argon2idHasher {
	return NewArgon2idHasher(3, 64*1024, 32, 16, 1)
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, h.params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedPasswordHashingError, err)
	}
	return hash, nil
}

// Compare reports whether password matches hash. Hashes from the users table
// that cannot be decoded yield UnexpectedPasswordHashComparisonError wrapping
// the decoder's cause; a mismatch is not an error.
func (h *Argon2idHasher) Compare(hash, password string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.UnexpectedPasswordHashComparisonError, err)
	}
	return match, nil
}

package mockapi

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPasswordHash         = errors.New("mockapi: invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("mockapi: incompatible password hash version")
	errPasswordMismatch            = errors.New("mockapi: password mismatch")
)

// PasswordParams tunes the argon2id key derivation.
type PasswordParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultPasswordParams are the production strength parameters.
var DefaultPasswordParams = PasswordParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// FastPasswordParams keep tests quick. Never use them for real accounts.
var FastPasswordParams = PasswordParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword derives an encoded argon2id hash of password.
func HashPassword(password string, params PasswordParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	// $argon2id$v=19$m=...,t=...,p=...$salt$hash
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// storedHash is an encoded password hash split into its parts.
type storedHash struct {
	params PasswordParams
	salt   []byte
	key    []byte
}

// parseStoredHash decodes "$argon2id$v=19$m=..,t=..,p=..$<salt>$<key>".
func parseStoredHash(encoded string) (storedHash, error) {
	fields := strings.Split(strings.TrimPrefix(encoded, "$"), "$")
	if len(fields) != 5 || fields[0] != "argon2id" {
		return storedHash{}, ErrInvalidPasswordHash
	}
	if fields[1] != fmt.Sprintf("v=%d", argon2.Version) {
		return storedHash{}, ErrIncompatiblePasswordVersion
	}

	var h storedHash
	if _, err := fmt.Sscanf(fields[2], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Iterations, &h.params.Parallelism); err != nil {
		return storedHash{}, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}
	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[3]); err != nil {
		return storedHash{}, fmt.Errorf("%w: salt: %v", ErrInvalidPasswordHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return storedHash{}, fmt.Errorf("%w: key: %v", ErrInvalidPasswordHash, err)
	}
	return h, nil
}

// matches derives a key from password with the stored parameters and
// compares it in constant time.
func (h storedHash) matches(password string) bool {
	derived := argon2.IDKey([]byte(password), h.salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(h.key, derived) == 1
}

// VerifyPassword checks password against an account's stored hash.
func VerifyPassword(encoded, password string) error {
	h, err := parseStoredHash(encoded)
	if err != nil {
		return err
	}
	if !h.matches(password) {
		return errPasswordMismatch
	}
	return nil
}

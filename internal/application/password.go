package application

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
	ErrInvalidPasswordHash         = errors.New("invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
	ErrPasswordMismatch            = errors.New("password does not match")
)

// generatedPasswordBytes is the entropy of passwords issued to new users.
const generatedPasswordBytes = 12

// Argon2idParams tunes the argon2id key derivation used for stored passwords.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// storedHash is the decoded form of $argon2id$v=19$m=..,t=..,p=..$salt$key.
type storedHash struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (h storedHash) derive(password string) []byte {
	return argon2.IDKey([]byte(password), h.salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
}

func (h storedHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

func parseStoredHash(encoded string) (storedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return storedHash{}, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return storedHash{}, ErrInvalidPasswordHash
	}
	if version != argon2.Version {
		return storedHash{}, ErrIncompatiblePasswordVersion
	}

	var h storedHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Iterations, &h.params.Parallelism); err != nil {
		return storedHash{}, ErrInvalidPasswordHash
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return storedHash{}, ErrInvalidPasswordHash
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return storedHash{}, ErrInvalidPasswordHash
	}
	h.params.SaltLength = uint32(len(h.salt))
	h.params.KeyLength = uint32(len(h.key))
	return h, nil
}

// CreatePasswordHash derives an argon2id key for password with a fresh salt
// and returns it in its encoded form.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	h := storedHash{params: params, salt: make([]byte, params.SaltLength)}
	if _, err := rand.Read(h.salt); err != nil {
		return "", err
	}
	h.key = h.derive(password)
	return h.String(), nil
}

// VerifyPassword checks password against an encoded hash.
func VerifyPassword(hashedPassword, password string) error {
	h, err := parseStoredHash(hashedPassword)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(h.key, h.derive(password)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// GeneratePassword returns a random URL safe password.
func GeneratePassword() (string, error) {
	buf := make([]byte, generatedPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashPassword hashes password with DefaultArgon2idParams.
func HashPassword(password string) (string, error) {
	return CreatePasswordHash(password, DefaultArgon2idParams)
}

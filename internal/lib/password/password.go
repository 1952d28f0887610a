package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

var ErrHashingFailure = errors.New("password hashing failed")

const (
	DefaultN       = 1 << 14
	DefaultR       = 8
	DefaultP       = 1
	DefaultKeyLen  = 64
	DefaultSaltLen = 16
)

// Hash is a salted scrypt digest. Both fields are hex encoded.
type Hash struct {
	Salt   string
	Digest string
}

type Hasher struct {
	N       int
	R       int
	P       int
	KeyLen  int
	SaltLen int

	rand io.Reader
}

func New() *Hasher {
	return &Hasher{
		N:       DefaultN,
		R:       DefaultR,
		P:       DefaultP,
		KeyLen:  DefaultKeyLen,
		SaltLen: DefaultSaltLen,
		rand:    rand.Reader,
	}
}

// NewWithCost returns a Hasher with the default lengths and the given scrypt cost.
func NewWithCost(n, r, p int) *Hasher {
	h := New()
	h.N, h.R, h.P = n, r, p

	return h
}

// Hash derives a digest for password under a freshly generated salt.
func (h *Hasher) Hash(password string) (Hash, error) {
	const op = "password.Hash"

	src := h.rand
	if src == nil {
		src = rand.Reader
	}

	salt := make([]byte, h.SaltLen)
	if _, err := io.ReadFull(src, salt); err != nil {
		return Hash{}, fmt.Errorf("%s: %w: salt: %v", op, ErrHashingFailure, err)
	}

	encodedSalt := hex.EncodeToString(salt)

	digest, err := h.derive(password, encodedSalt)
	if err != nil {
		return Hash{}, fmt.Errorf("%s: %w", op, err)
	}

	return Hash{
		Salt:   encodedSalt,
		Digest: digest,
	}, nil
}

// Verify recomputes the digest with salt and compares it to expected in
// constant time. A mismatch is not an error.
func (h *Hasher) Verify(password, salt, expected string) (bool, error) {
	const op = "password.Verify"

	digest, err := h.derive(password, salt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return subtle.ConstantTimeCompare([]byte(digest), []byte(expected)) == 1, nil
}

func (h *Hasher) derive(password, salt string) (string, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), h.N, h.R, h.P, h.KeyLen)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}

	return hex.EncodeToString(key), nil
}

package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 24 * time.Hour

var (
	ErrExpiredToken     = errors.New("session token expired")
	ErrInvalidSignature = errors.New("session token signature invalid")
	ErrMalformedToken   = errors.New("session token malformed")
)

// signingMethod is fixed; tokens carrying any other alg are rejected.
var signingMethod = jwtlib.SigningMethodHS256

// Issuer mints and verifies HS256 session tokens. It holds no mutable state
// after construction.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token for subjectID expiring ttl from now.
func (i *Issuer) Issue(subjectID string) (string, error) {
	const op = "jwt.Issue"

	now := i.now()

	token := jwtlib.NewWithClaims(signingMethod, jwtlib.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(i.ttl)),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the subject.
func (i *Issuer) Verify(tokenStr string) (string, error) {
	const op = "jwt.Verify"

	claims := &jwtlib.RegisteredClaims{}

	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{signingMethod.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(i.now),
	)

	_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwtlib.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, classify(err))
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%s: %w: missing sub", op, ErrMalformedToken)
	}

	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid),
		errors.Is(err, jwtlib.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return ErrMalformedToken
	}
}

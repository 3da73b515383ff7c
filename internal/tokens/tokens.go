package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind tags the purpose of a token. Every token carries its kind and a token
// minted for one purpose is rejected when presented for another.
type Kind string

const (
	KindAccess            Kind = "access"
	KindRefresh           Kind = "refresh"
	KindEmailVerification Kind = "email_verification"
)

// Lifetimes are fixed per kind, not configurable per call.
const (
	AccessTTL            = time.Hour
	RefreshTTL           = 7 * 24 * time.Hour
	EmailVerificationTTL = 24 * time.Hour
)

var (
	ErrExpired      = errors.New("token expired")
	ErrBadSignature = errors.New("invalid token signature")
	ErrMalformed    = errors.New("malformed token")
	ErrWrongKind    = errors.New("unexpected token kind")
)

// Claims is the signed payload: subject, issued-at, expiry, kind, and for
// access tokens the role the user held at issuance.
type Claims struct {
	Kind Kind   `json:"kind"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies claims with a process-wide symmetric secret,
// HS256 only. The secret is fixed at construction.
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

func (c *Codec) SignAccess(userID, role string, now time.Time) (string, error) {
	return c.sign(Claims{
		Kind:             KindAccess,
		Role:             role,
		RegisteredClaims: registered(userID, now, AccessTTL),
	})
}

func (c *Codec) SignRefresh(userID string, now time.Time) (string, error) {
	return c.sign(Claims{
		Kind:             KindRefresh,
		RegisteredClaims: registered(userID, now, RefreshTTL),
	})
}

func (c *Codec) SignEmailVerification(userID string, now time.Time) (string, error) {
	return c.sign(Claims{
		Kind:             KindEmailVerification,
		RegisteredClaims: registered(userID, now, EmailVerificationTTL),
	})
}

func registered(userID string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (c *Codec) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Parse verifies signature and expiry and checks that the token was minted
// for the expected kind. ErrWrongKind means client misuse (400-class); the
// other errors mean the credential itself cannot be trusted (401-class).
func (c *Codec) Parse(raw string, expect Kind) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrBadSignature
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrBadSignature):
			return nil, ErrBadSignature
		default:
			return nil, ErrMalformed
		}
	}
	if !tkn.Valid {
		return nil, ErrBadSignature
	}
	if claims.Kind != expect {
		return nil, ErrWrongKind
	}
	return &claims, nil
}

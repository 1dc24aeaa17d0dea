// Package auth issues and validates bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

var (
	// ErrUnauthorized is returned for absent, malformed or badly signed tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrExpired is returned for well-formed tokens past their expiry.
	ErrExpired = errors.New("token expired")
)

// Claims is the payload carried by every bearer token.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the identity recovered from a valid token.
type Principal struct {
	ID   string
	Role model.Role
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer constructs an Issuer with the given signing secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Issue returns a signed token for principalID and role that expires after
// ttl. Callers choose the ttl.
func (i *Issuer) Issue(principalID string, role model.Role, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature and expiry and recovers the principal.
func (i *Issuer) Validate(tokenStr string) (Principal, error) {
	if tokenStr == "" {
		return Principal{}, ErrUnauthorized
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrExpired
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return Principal{}, ErrUnauthorized
	}
	switch c.Role {
	case model.RoleOrganizer, model.RoleAttendee:
	default:
		return Principal{}, ErrUnauthorized
	}
	return Principal{ID: c.Subject, Role: c.Role}, nil
}

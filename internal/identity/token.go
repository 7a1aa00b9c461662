package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated indicates the bearer token is absent, malformed,
// expired, or its subject is unknown.
var ErrUnauthenticated = errors.New("identity: unauthenticated")

const tokenIssuer = "quillpress"

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 access tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec constructs a TokenCodec from the shared signing secret.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given principal.
func (c *TokenCodec) Issue(p Principal, now time.Time) (string, error) {
	roles := make([]string, 0, len(p.roles))
	for role := range p.roles {
		roles = append(roles, string(role))
	}
	claims := Claims{
		Name:  p.Name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a signed token and reconstructs the Principal it carries.
// It does not consult storage; callers wanting to reject deleted accounts
// pair it with a SubjectLookup (see Authenticator).
func (c *TokenCodec) Verify(raw string) (Principal, error) {
	if raw == "" {
		return Principal{}, ErrUnauthenticated
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Principal{}, ErrUnauthenticated
	}
	if claims.Subject == "" {
		return Principal{}, ErrUnauthenticated
	}
	return NewPrincipal(claims.Subject, claims.Name, claims.Roles), nil
}

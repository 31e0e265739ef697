package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("access token expired")
	ErrTokenInvalid = errors.New("invalid access token")
)

// AccessClaims are embedded in every access token. Scopes is the
// deduplicated union of permission names across the user's roles; the jti
// here is informational only, access tokens are never revoked individually.
type AccessClaims struct {
	Roles  []string `json:"roles"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens. It holds no state besides the
// signing key and TTL, both fixed at startup.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl}
}

func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs an access token for the subject with the default TTL.
func (c *Codec) Issue(sub string, roles, scopes []string) (string, time.Time, error) {
	return c.IssueWithTTL(sub, roles, scopes, c.ttl)
}

// IssueWithTTL signs an access token with an explicit TTL, used for
// short-lived impersonation tokens.
func (c *Codec) IssueWithTTL(sub string, roles, scopes []string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := AccessClaims{
		Roles:  roles,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ID:        NewJTI(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature and expiry. A bad signature or malformed token
// yields ErrTokenInvalid, an expired one ErrTokenExpired; the payload is
// never returned in either case.
func (c *Codec) Verify(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eventlottery/internal/domain"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type jwtClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// HS256 keeps issuer and verifier on one shared secret (JWT_SECRET).
type hmacKey struct {
	secret []byte
	now    func() time.Time
}

type jwtIssuer struct {
	hmacKey
}

// NewJWTIssuer returns a TokenIssuer that signs JWTs with HS256 using the given secret.
func NewJWTIssuer(secret string) domain.TokenIssuer {
	return &jwtIssuer{hmacKey{secret: []byte(secret), now: time.Now}}
}

func (i *jwtIssuer) Issue(entrantID string, roles []string, expiry time.Duration) (string, error) {
	if entrantID == "" {
		return "", fmt.Errorf("%w: entrant id is required", domain.ErrInvalidInput)
	}
	now := i.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   entrantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Roles: roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

type jwtVerifier struct {
	hmacKey
}

// NewJWTVerifier returns a TokenVerifier accepting HS256 tokens signed with secret.
// The token subject becomes Identity.EntrantID.
func NewJWTVerifier(secret string) domain.TokenVerifier {
	return &jwtVerifier{hmacKey{secret: []byte(secret), now: time.Now}}
}

func (v *jwtVerifier) Verify(token string) (*domain.Identity, error) {
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &domain.Identity{EntrantID: claims.Subject, Roles: claims.Roles}, nil
}

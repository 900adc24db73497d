package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("entrant-123", []string{domain.RoleOrganizer}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "entrant-123", claims.Subject)
	assert.Equal(t, []string{"organizer"}, claims.Roles)

	_, err = issuer.Issue("", nil, time.Hour)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJWTVerifier_Verify(t *testing.T) {
	secret := "test-secret"
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer := &jwtIssuer{hmacKey{secret: []byte(secret), now: func() time.Time { return issued }}}

	valid, err := issuer.Issue("entrant-1", []string{"organizer"}, time.Hour)
	require.NoError(t, err)
	entrantOnly, err := issuer.Issue("entrant-2", nil, time.Hour)
	require.NoError(t, err)
	foreign, err := (&jwtIssuer{hmacKey{secret: []byte("other"), now: func() time.Time { return issued }}}).Issue("entrant-1", nil, time.Hour)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "entrant-1", ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		at        time.Time
		want      *domain.Identity
		wantErr   bool
		organizer bool
	}{
		{
			name:      "organizer token",
			token:     valid,
			at:        issued.Add(time.Minute),
			want:      &domain.Identity{EntrantID: "entrant-1", Roles: []string{"organizer"}},
			organizer: true,
		},
		{
			name:  "entrant token",
			token: entrantOnly,
			at:    issued.Add(time.Minute),
			want:  &domain.Identity{EntrantID: "entrant-2"},
		},
		{name: "expired", token: valid, at: issued.Add(2 * time.Hour), wantErr: true},
		{name: "wrong secret", token: foreign, at: issued, wantErr: true},
		{name: "unsigned", token: noneAlg, at: issued, wantErr: true},
		{name: "garbage", token: "not-a-jwt", at: issued, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			v := &jwtVerifier{hmacKey{secret: []byte(secret), now: func() time.Time { return at }}}
			got, err := v.Verify(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.organizer, got.HasRole(domain.RoleOrganizer))
		})
	}
}

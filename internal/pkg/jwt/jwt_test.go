package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfmark/internal/domain"
)

func TestService_RoundTrip(t *testing.T) {
	svc := New("test-secret", time.Hour)
	id := domain.Identity{UserID: 42, Username: "alice", Role: domain.RoleAdmin}

	token, err := svc.GenerateToken(id)
	require.NoError(t, err)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.True(t, got.IsAdmin())
}

func TestService_WrongSecret(t *testing.T) {
	token, err := New("secret-a", time.Hour).GenerateToken(domain.Identity{UserID: 1, Username: "a", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = New("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestService_Expired(t *testing.T) {
	svc := New("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.GenerateToken(domain.Identity{UserID: 1, Username: "a", Role: domain.RoleUser})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestService_Malformed(t *testing.T) {
	svc := New("secret", time.Hour)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, domain.ErrAuth, "token %q", tok)
	}
}

func TestService_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = New("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestService_RejectsUnknownRole(t *testing.T) {
	svc := New("secret", time.Hour)
	token, err := svc.GenerateToken(domain.Identity{UserID: 1, Username: "a", Role: "superuser"})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

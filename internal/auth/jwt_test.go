package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_GenerateAndValidate(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	token, err := issuer.Generate("ops", true)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "Три части JWT")

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "fps-core", claims.Issuer)
}

func TestIssuer_RejectsInvalid(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	for _, token := range []string{
		"",
		"not.a.jwt",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	} {
		_, err := issuer.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestIssuer_OtherSecret(t *testing.T) {
	token, err := NewIssuer("secret-a", time.Hour).Generate("ops", true)
	require.NoError(t, err)

	_, err = NewIssuer("secret-b", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_Expired(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	start := time.Now()
	issuer.now = func() time.Time { return start }

	token, err := issuer.Generate("ops", false)
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsNoneAlgorithm(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	claims := &Claims{Operator: "ops", IsAdmin: true, RegisteredClaims: jwt.RegisteredClaims{Issuer: issuerName}}

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_RandomSecret(t *testing.T) {
	a, b := NewIssuer("", 0), NewIssuer("", 0)

	token, err := a.Generate("ops", true)
	require.NoError(t, err)
	_, err = b.Validate(token)
	assert.Error(t, err, "Случайные ключи различаются")
	assert.Equal(t, 24*time.Hour, a.ttl)
}

func TestGenerateSecureSecret(t *testing.T) {
	decoded, err := base64.StdEncoding.DecodeString(GenerateSecureSecret())
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

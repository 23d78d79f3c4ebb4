package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Hour)

	tok, err := svc.GenerateToken(7, "ann@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "7", claims.Subject)
}

func TestValidateRejectsForeignSecretAndExpired(t *testing.T) {
	tok, err := New("one", time.Hour).GenerateToken(1, "a@b.c")
	require.NoError(t, err)
	_, err = New("two", time.Hour).ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := New("one", -time.Minute).GenerateToken(1, "a@b.c")
	require.NoError(t, err)
	_, err = New("one", time.Hour).ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	for _, h := range []string{"", "Basic dGVzdA==", "Bearer ", "bearer abc"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, ErrMissingBearer, h)
	}
}

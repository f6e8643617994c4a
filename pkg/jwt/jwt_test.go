package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("test-secret", "go-kasir-ws-test", time.Hour)
	id := uuid.New()

	tok, err := iss.GenerateToken(id, "kasir1", "cashier")
	require.NoError(t, err)

	claims, err := iss.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "kasir1", claims.Username)
	assert.Equal(t, "cashier", claims.Role)
}

func TestIssuer_RejectsForeignSecret(t *testing.T) {
	tok, err := NewIssuer("secret-a", "x", time.Hour).GenerateToken(uuid.New(), "admin", "admin")
	require.NoError(t, err)

	_, err = NewIssuer("secret-b", "x", time.Hour).ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsExpired(t *testing.T) {
	iss := NewIssuer("s", "x", time.Hour)
	iss.ttl = -time.Minute
	tok, err := iss.GenerateToken(uuid.New(), "admin", "admin")
	require.NoError(t, err)

	_, err = iss.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_MissingToken(t *testing.T) {
	_, err := NewIssuer("s", "x", time.Hour).ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func TestValidateToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys, err := NewKeys(&priv.PublicKey)
	require.NoError(t, err)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Name:             "Asha",
		Email:            "asha@example.com",
	}
	got, err := keys.ValidateToken(sign(t, priv, claims))
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.User().ID)
	assert.Equal(t, "Asha", got.User().Name)

	expired := claims
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err = keys.ValidateToken(sign(t, priv, expired))
	assert.Error(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = keys.ValidateToken(sign(t, other, claims))
	assert.Error(t, err)

	noSubject := claims
	noSubject.Subject = ""
	_, err = keys.ValidateToken(sign(t, priv, noSubject))
	assert.Error(t, err)
}

func TestLoadKeys(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pubkey.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	keys, err := LoadKeys(path)
	require.NoError(t, err)
	assert.NotNil(t, keys)

	_, err = LoadKeys(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}

func TestUserFromContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), ClaimsKey, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u-2"}})
	u, ok := UserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u-2", u.ID)
}

package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/domain"
)

type ctxKey int

const ClaimsKey ctxKey = 1

type Keys struct {
	publicKey *rsa.PublicKey
}

// Claims are the bearer token claims issued by the user service.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewKeys(publicKey *rsa.PublicKey) (*Keys, error) {
	if publicKey == nil {
		return nil, errors.New("public key cannot be nil")
	}
	return &Keys{publicKey: publicKey}, nil
}

// LoadKeys reads a PEM encoded RSA public key.
func LoadKeys(path string) (*Keys, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return NewKeys(pub)
}

func (k *Keys) ValidateToken(tokenStr string) (Claims, error) {
	var c Claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (interface{}, error) {
		return k.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if c.Subject == "" {
		return Claims{}, errors.New("token has no subject")
	}
	return c, nil
}

// User maps the claims onto the identity the storefront works with.
func (c Claims) User() domain.User {
	return domain.User{ID: c.Subject, Name: c.Name, Email: c.Email}
}

// UserFromContext returns the authenticated user, if the request carried one.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	claims, ok := ctx.Value(ClaimsKey).(Claims)
	if !ok {
		return domain.User{}, false
	}
	return claims.User(), true
}

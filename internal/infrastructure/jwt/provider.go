package jwtinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/minimalist-todo/api/internal/domain"
)

// SecretProvider supplies the HMAC signing secret. Implementations are
// expected to cache; the provider is called on every sign and verify.
type SecretProvider interface {
	JWTSecret(ctx context.Context) (string, error)
}

// Claims holds the JWT payload fields. Subject carries the user id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs. Tokens are self-contained: there is
// no refresh mechanism and no revocation list, so a token stays valid until
// its expiry.
type Provider struct {
	secrets SecretProvider
	expiry  time.Duration
}

func NewProvider(secrets SecretProvider, expiry time.Duration) *Provider {
	return &Provider{secrets: secrets, expiry: expiry}
}

func (p *Provider) Sign(ctx context.Context, u *domain.User) (string, error) {
	secret, err := p.secrets.JWTSecret(ctx)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	now := time.Now()
	claims := Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (p *Provider) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	secret, err := p.secrets.JWTSecret(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("missing required token fields")
	}
	return claims, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"social-go/internal/config"
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrRevokedToken = errors.New("auth: token revoked")
)

// Claims carries the authenticated user in the token subject.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID is the subject of the token.
func (c *Claims) UserID() string { return c.Subject }

// GenerateToken issues an HS256 token for the user with a random jti.
func GenerateToken(userID, username string, authCfg config.AuthConfig) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			Issuer:    authCfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(authCfg.JWTExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(authCfg.JWTSecretKey))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken verifies signature, expiry and issuer, then checks the
// blacklist when one is given. A blacklist lookup failure rejects the token.
func ValidateToken(ctx context.Context, tokenString string, authCfg config.AuthConfig, blacklist TokenBlacklist) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if authCfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(authCfg.JWTIssuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(authCfg.JWTSecretKey), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or jti", ErrInvalidToken)
	}

	if blacklist != nil {
		revoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token blacklist: %w", err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

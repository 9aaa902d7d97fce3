package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nyeinchan/shwecart-backend/pkg/config"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// Identity is a verified caller extracted from an access token. Tokens are
// minted by the identity service; this package only verifies them.
type Identity struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.ActorRole `json:"role"`
	// RiderID links rider-role tokens to their rider row.
	RiderID *uuid.UUID `json:"rider_id,omitempty"`
	jwt.RegisteredClaims
}

// ParseAccessToken validates the JWT string and returns the typed identity.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*Identity, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &Identity{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("invalid role %q in token", claims.Role)
	}

	return claims, nil
}

// MintAccessToken issues a signed token. Kept for local tooling and tests;
// production tokens come from the identity service.
func MintAccessToken(cfg config.JWTConfig, now time.Time, identity Identity, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if !identity.Role.IsValid() {
		return "", fmt.Errorf("invalid actor role %q", identity.Role)
	}
	identity.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwtSigningMethod, identity)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

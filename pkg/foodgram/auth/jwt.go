package auth

import (
	"errors"
	"time"

	"github.com/foodgram/backend/pkg/foodgram/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

var (
	jwtSecret     = []byte("foodgram-dev-secret-change-in-production")
	tokenDuration = 24 * time.Hour
	tokenIssuer   = "foodgram"
)

// Init applies JWT settings from configuration. Defaults above are for
// development and tests only.
func Init(cfg config.JWTConfig) {
	if cfg.Secret != "" {
		jwtSecret = []byte(cfg.Secret)
	}
	if cfg.Expiration > 0 {
		tokenDuration = cfg.Expiration
	}
	if cfg.Issuer != "" {
		tokenIssuer = cfg.Issuer
	}
}

// Claims represents the JWT claims
type Claims struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	SystemRole string `json:"system_role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT token for a user
func GenerateToken(userID uint, email string, systemRole string) (string, error) {
	claims := &Claims{
		UserID:     userID,
		Email:      email,
		SystemRole: systemRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

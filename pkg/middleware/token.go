package middleware

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cybercrime-portal/pkg/catalog"
)

// GenerateToken signs a bearer token for the given identity. Account
// management lives outside the case services; this exists for service
// accounts and tests.
func GenerateToken(userID, email string, role catalog.UserRole, department string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID:     userID,
		Email:      email,
		Role:       role,
		Department: department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret())
}

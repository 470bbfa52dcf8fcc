package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the registered claims set plus the principal name.
type Claims struct {
	jwt.RegisteredClaims
	Principal string `json:"principal"`
}

// GenerateToken signs a bearer token for principal valid for
// validityDuration.
func GenerateToken(principal string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Principal: principal,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParsePrincipal validates tokenString and returns the principal name it
// was issued for.
func ParsePrincipal(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return "", common.ErrTokenExpired
	}
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Principal, nil
}

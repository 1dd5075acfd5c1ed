package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// GeneratePushToken mints the bearer token the queue collaborator attaches
// to push deliveries for a given stage endpoint.
func GeneratePushToken(secretKey, stage string, tokenDuration time.Duration) (string, error) {
	claims := transfer.PushClaims{
		Stage: stage,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "socialqueue",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}

// ValidatePushToken verifies a push delivery token and returns its claims.
func ValidatePushToken(secretKey, tokenString string) (*transfer.PushClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.PushClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if claims, ok := token.Claims.(*transfer.PushClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Package auth resolves the authenticated user identity from a bearer token
// issued by the hosted auth collaborator.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier resolves the current user from a bearer token. An absent or
// unverifiable identity is reported as not-authenticated rather than as a
// distinct error, matching the collaborator's fail-to-none contract.
type Verifier interface {
	CurrentUser(ctx context.Context, token string) (string, bool)
}

// JWTVerifier validates HMAC-signed access tokens locally.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// CurrentUser parses and validates the token and returns the user id carried
// in it. Every failure mode (empty token, wrong signing method, expiry,
// refresh token misuse) collapses to ("", false).
func (v *JWTVerifier) CurrentUser(ctx context.Context, tokenString string) (string, bool) {
	if tokenString == "" {
		return "", false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}

	if tokenType, _ := claims["type"].(string); tokenType == "refresh" {
		return "", false
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// ExtractBearer pulls the token out of an Authorization header value.
func ExtractBearer(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

package sccache

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NewClientToken returns a random bearer token for client auth.
func NewClientToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewSecretKey returns a fresh base64 HS256 key, the same shape
// `sccache-dist auth generate-jwt-hs256-key` produces.
func NewSecretKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// SignServerToken mints the HS256 token a build server presents to the
// scheduler. The server_id claim pins the server's advertised address.
// sccache validates the signature but not expiry, so exp stays zero.
func SignServerToken(secretKey, serverAddr string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secretKey)
	if err != nil {
		return "", fmt.Errorf("decode secret key: %w", err)
	}
	claims := jwt.MapClaims{"exp": 0, "server_id": serverAddr}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// VerifyServerToken checks the signature of a server token and returns
// its server_id claim.
func VerifyServerToken(secretKey, token string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secretKey)
	if err != nil {
		return "", fmt.Errorf("decode secret key: %w", err)
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	id, _ := claims["server_id"].(string)
	if id == "" {
		return "", errors.New("missing server_id claim")
	}
	return id, nil
}

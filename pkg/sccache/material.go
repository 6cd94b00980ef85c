package sccache

import (
	"os"
	"path/filepath"
	"strings"
)

// Material is the auth state shared between the farm and its clients:
// the client bearer token and the HS256 key servers sign in with.
type Material struct {
	Token     string
	SecretKey string
}

const (
	tokenFile  = "token"
	secretFile = "jwt_secret"
)

// EnsureMaterial loads auth material from dir, generating whatever is
// missing. Repeated calls return the same values, so restarting the
// farm never invalidates tokens clients already hold. Files are
// created private to the owner.
func EnsureMaterial(dir string) (*Material, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	token, err := ensureSecretFile(filepath.Join(dir, tokenFile), func() (string, error) {
		return NewClientToken(), nil
	})
	if err != nil {
		return nil, err
	}
	secret, err := ensureSecretFile(filepath.Join(dir, secretFile), NewSecretKey)
	if err != nil {
		return nil, err
	}
	return &Material{Token: token, SecretKey: secret}, nil
}

// TokenPath returns the host path of the client token file inside dir.
func TokenPath(dir string) string {
	return filepath.Join(dir, tokenFile)
}

// SecretKeyPath returns the host path of the HS256 key file inside dir.
func SecretKeyPath(dir string) string {
	return filepath.Join(dir, secretFile)
}

func ensureSecretFile(path string, gen func() (string, error)) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	val, err := gen()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(val+"\n"), 0o600); err != nil {
		return "", err
	}
	return val, nil
}

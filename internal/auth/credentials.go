// Package auth supplies the persisted bearer credential used to authorize
// backend requests. Token issuance and refresh happen elsewhere; this package
// only reads what a login flow has already persisted.
package auth

import (
	"fmt"
	"os"
	"strings"

	"agentchat/internal/logger"
)

// TokenEnvVar overrides the credentials file when set.
const TokenEnvVar = "AGENTCHAT_TOKEN"

// TokenProvider supplies the current bearer token for backend requests.
type TokenProvider interface {
	Token() (string, error)
}

// FileCredentials reads the bearer token from the environment or a credentials file.
// The environment variable takes precedence so scripted runs can inject a token
// without touching the file.
type FileCredentials struct {
	path string
}

// NewFileCredentials creates a credential reader backed by the given file path.
func NewFileCredentials(path string) *FileCredentials {
	return &FileCredentials{path: path}
}

// Token returns the current bearer token.
func (f *FileCredentials) Token() (string, error) {
	if token := os.Getenv(TokenEnvVar); token != "" {
		return token, nil
	}

	if f.path == "" {
		return "", fmt.Errorf("no credentials available: set %s or configure a credentials file", TokenEnvVar)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("credentials file %s is empty", f.path)
	}

	logger.Debug("Bearer token loaded from file", "path", f.path)
	return token, nil
}

// StaticToken is a TokenProvider returning a fixed token. Intended for tests
// and for callers that already hold a token in memory.
type StaticToken string

// Token returns the static token value.
func (s StaticToken) Token() (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty static token")
	}
	return string(s), nil
}

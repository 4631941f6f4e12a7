package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTokenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFileCredentials_ReadsFile(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	path := writeTokenFile(t, "file-token\n")

	creds := NewFileCredentials(path)
	token, err := creds.Token()
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)
}

func TestFileCredentials_EnvOverridesFile(t *testing.T) {
	path := writeTokenFile(t, "file-token")
	t.Setenv(TokenEnvVar, "env-token")

	creds := NewFileCredentials(path)
	token, err := creds.Token()
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)
}

func TestFileCredentials_MissingFile(t *testing.T) {
	t.Setenv(TokenEnvVar, "")

	creds := NewFileCredentials(filepath.Join(t.TempDir(), "nope"))
	_, err := creds.Token()
	require.Error(t, err)
}

func TestFileCredentials_EmptyFile(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	path := writeTokenFile(t, "  \n")

	creds := NewFileCredentials(path)
	_, err := creds.Token()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestFileCredentials_NoPathNoEnv(t *testing.T) {
	t.Setenv(TokenEnvVar, "")

	creds := NewFileCredentials("")
	_, err := creds.Token()
	require.Error(t, err)
	assert.Contains(t, err.Error(), TokenEnvVar)
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("abc").Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = StaticToken("").Token()
	require.Error(t, err)
}

package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": 1,
		"email":    "admin@example.com",
		"exp":      exp.Unix(),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestAttachPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	m, err := NewManager(store, nil)
	require.NoError(t, err)
	assert.Equal(t, "", m.AccessToken())

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, exp)
	require.NoError(t, m.Attach(token, "admin@example.com"))
	assert.Equal(t, token, m.AccessToken())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := NewManager(store, nil)
	require.NoError(t, err)
	assert.Equal(t, token, reloaded.AccessToken())

	s, ok := reloaded.Current()
	require.True(t, ok)
	require.NotNil(t, s.ExpiresAt)
	assert.True(t, s.ExpiresAt.Equal(exp.UTC()))
}

func TestExpiredTokenIsNotAttachedToRequests(t *testing.T) {
	m, err := NewManager(NewFileStore(filepath.Join(t.TempDir(), "s.json")), nil)
	require.NoError(t, err)

	require.NoError(t, m.Attach(signedToken(t, time.Now().Add(-time.Minute)), "a@b.c"))
	assert.Equal(t, "", m.AccessToken())

	_, ok := m.Current()
	assert.True(t, ok)
}

func TestOpaqueTokenHasNoExpiry(t *testing.T) {
	m, err := NewManager(NewFileStore(filepath.Join(t.TempDir(), "s.json")), nil)
	require.NoError(t, err)

	require.NoError(t, m.Attach("plain-opaque-token", ""))
	assert.Equal(t, "plain-opaque-token", m.AccessToken())
	s, _ := m.Current()
	assert.Nil(t, s.ExpiresAt)
}

func TestClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	m, err := NewManager(NewFileStore(path), nil)
	require.NoError(t, err)
	require.NoError(t, m.Attach("tok", ""))

	require.NoError(t, m.Clear())
	assert.Equal(t, "", m.AccessToken())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, m.Clear())
}

func TestAttachRejectsEmptyToken(t *testing.T) {
	m, err := NewManager(NewFileStore(filepath.Join(t.TempDir(), "s.json")), nil)
	require.NoError(t, err)
	assert.Error(t, m.Attach("  ", "x"))
}

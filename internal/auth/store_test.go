package auth

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debriefapp/debrief-cli/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession() *domain.Session {
	return &domain.Session{
		Token:        "access-token",
		RefreshToken: "refresh-token",
		User: &domain.UserProfile{
			ID:          "user-1",
			Username:    "ana",
			Email:       "ana@example.com",
			AccountType: domain.MasterAccount,
			Active:      true,
		},
	}
}

func TestStore_ReadWriteRoundTrip(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "debrief_auth.json"), testLogger())

	store.Write(testSession())

	got := store.Read()
	require.NotNil(t, got)
	assert.Equal(t, "access-token", got.Token)
	assert.Equal(t, "refresh-token", got.RefreshToken)
	require.NotNil(t, got.User)
	assert.Equal(t, "ana", got.User.Username)
}

func TestStore_ReadMissingFile(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "debrief_auth.json"), testLogger())

	assert.Nil(t, store.Read())
}

func TestStore_ReadMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debrief_auth.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewStoreAt(path, testLogger())

	assert.Nil(t, store.Read())

	// Malformed content is removed, not left to fail again.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_ReadPartialRecord(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "token without user", body: `{"token":"abc"}`},
		{name: "user without token", body: `{"user":{"id":"u1","username":"ana"}}`},
		{name: "empty object", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "debrief_auth.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			store := NewStoreAt(path, testLogger())
			assert.Nil(t, store.Read())
		})
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "debrief_auth.json"), testLogger())

	store.Write(testSession())
	store.Clear()
	store.Clear()

	assert.Nil(t, store.Read())
}

func TestStore_WriteNilSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debrief_auth.json")
	store := NewStoreAt(path, testLogger())

	store.Write(nil)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_RejectsTraversalPath(t *testing.T) {
	store := NewStoreAt("../outside/debrief_auth.json", testLogger())

	store.Write(testSession())
	assert.Nil(t, store.Read())
}

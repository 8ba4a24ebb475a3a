package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/storage/kvstore"
)

func newTestSessionManager() (*SessionManager, *kvstore.MemStore) {
	kv := kvstore.NewMemStore()
	return NewSessionManager(testConfig(), kv, nopLogger{}), kv
}

func TestSessionManagerOpen(t *testing.T) {
	sm, kv := newTestSessionManager()
	usr := User{ID: 1, Email: "jane@test.cd", FirstName: "Jane", LastName: "Roe", PasswordHash: []byte("hash")}

	sess := sm.Open(usr, false)

	assert.True(t, sess.IsLoggedIn)
	assert.Nil(t, sess.User.PasswordHash) // never stored
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), sess.Expiry, time.Minute)

	flag, err := kv.Get(core.KeyIsLoggedIn)
	require.NoError(t, err)
	assert.Equal(t, "true", string(flag))

	raw, err := kv.Get(core.KeySessionExpiry)
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339, string(raw))
	assert.NoError(t, err)
}

func TestSessionManagerOpenRemember(t *testing.T) {
	sm, _ := newTestSessionManager()

	sess := sm.Open(User{ID: 1, Email: "jane@test.cd"}, true)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), sess.Expiry, time.Minute)
}

func TestSessionManagerCurrent(t *testing.T) {
	sm, kv := newTestSessionManager()

	t.Run("no session", func(t *testing.T) {
		assert.False(t, sm.Current().IsLoggedIn)
	})

	t.Run("live session", func(t *testing.T) {
		sm.Open(User{ID: 1, Email: "jane@test.cd", FirstName: "Jane"}, false)

		sess := sm.Current()
		assert.True(t, sess.IsLoggedIn)
		assert.Equal(t, "jane@test.cd", sess.User.Email)
	})

	t.Run("expired session reads back as logged out", func(t *testing.T) {
		defer func() { nowFunc = time.Now }()

		sm.Open(User{ID: 1, Email: "jane@test.cd"}, false)
		nowFunc = func() time.Time { return time.Now().Add(25 * time.Hour) }

		assert.False(t, sm.Current().IsLoggedIn)

		// the expiry cleared the stored state too
		flag, err := kv.Get(core.KeyIsLoggedIn)
		require.NoError(t, err)
		assert.Equal(t, "false", string(flag))
		_, err = kv.Get(core.KeyCurrentUser)
		assert.Equal(t, core.ErrKeyNotFound, err)
	})
}

func TestSessionManagerClose(t *testing.T) {
	sm, kv := newTestSessionManager()
	sm.Open(User{ID: 1, Email: "jane@test.cd"}, false)

	sm.Close()

	assert.False(t, sm.Current().IsLoggedIn)
	flag, err := kv.Get(core.KeyIsLoggedIn)
	require.NoError(t, err)
	assert.Equal(t, "false", string(flag))

	// closing twice is harmless
	sm.Close()
}

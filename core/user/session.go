package user

import (
	"encoding/json"
	"time"

	"github.com/annourmah/etudia/core"
)

// Session is the process-wide login state. Expiry is absolute and checked
// lazily on read, never by a timer: an expired session reads back as
// logged-out and is cleared on the spot.
type Session struct {
	IsLoggedIn bool      `json:"isLoggedIn"`
	User       User      `json:"currentUser,omitempty"`
	Expiry     time.Time `json:"sessionExpiry,omitempty"`
}

// SessionManager persists the session flags under their key-value store keys.
type SessionManager struct {
	kv             core.KVStore
	expiry         time.Duration
	rememberExpiry time.Duration
	logger         core.Logger
}

func NewSessionManager(conf *core.Config, kv core.KVStore, logger core.Logger) *SessionManager {
	return &SessionManager{
		kv:             kv,
		expiry:         conf.Server.SessionExpirationDelta,
		rememberExpiry: conf.Server.SessionRememberExpirationDelta,
		logger:         logger,
	}
}

// Open records a fresh session for the user: 30 days when remember is set,
// 24 hours otherwise. The stored user has its credential material stripped.
func (sm *SessionManager) Open(usr User, remember bool) Session {
	delta := sm.expiry
	if remember {
		delta = sm.rememberExpiry
	}
	sess := Session{
		IsLoggedIn: true,
		User:       usr.Public(),
		Expiry:     nowFunc().Add(delta),
	}

	sm.set(core.KeyIsLoggedIn, []byte("true"))
	if data, err := json.Marshal(sess.User); err == nil {
		sm.set(core.KeyCurrentUser, data)
	}
	sm.set(core.KeySessionExpiry, []byte(sess.Expiry.Format(time.RFC3339)))
	return sess
}

// Current reads the session state, expiring it lazily: once the absolute
// expiry has passed the session is treated identically to "not logged in"
// and the stored state is cleared.
func (sm *SessionManager) Current() Session {
	flag, err := sm.kv.Get(core.KeyIsLoggedIn)
	if err != nil || string(flag) != "true" {
		return Session{}
	}

	var sess Session
	sess.IsLoggedIn = true
	if data, err := sm.kv.Get(core.KeyCurrentUser); err == nil {
		_ = json.Unmarshal(data, &sess.User)
	}
	if data, err := sm.kv.Get(core.KeySessionExpiry); err == nil {
		sess.Expiry, _ = time.Parse(time.RFC3339, string(data))
	}

	if sess.Expiry.IsZero() || nowFunc().After(sess.Expiry) {
		sm.Close() // implicit logout
		return Session{}
	}
	return sess
}

// Close clears the session state.
func (sm *SessionManager) Close() {
	sm.set(core.KeyIsLoggedIn, []byte("false"))
	if err := sm.kv.Delete(core.KeyCurrentUser); err != nil && err != core.ErrKeyNotFound {
		sm.logger.Error("clearing current user", err)
	}
	if err := sm.kv.Delete(core.KeySessionExpiry); err != nil && err != core.ErrKeyNotFound {
		sm.logger.Error("clearing session expiry", err)
	}
}

func (sm *SessionManager) set(key string, val []byte) {
	if err := sm.kv.Set(key, val); err != nil {
		sm.logger.Error("persisting session state", err)
	}
}

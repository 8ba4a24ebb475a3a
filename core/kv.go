package core

import "errors"

// Persistence keys. Values are JSON-encoded, except the boolean flags
// which are stored as the literal strings "true"/"false".
const (
	KeyStudents      = "students"
	KeyResults       = "results"
	KeyUsers         = "users"
	KeyIsLoggedIn    = "isLoggedIn"
	KeyCurrentUser   = "currentUser"
	KeySessionExpiry = "sessionExpiry"
	KeyTheme         = "theme"
	KeyOfflineMode   = "offline_mode"
)

var ErrKeyNotFound = errors.New("key not found")

// KVStore is a string-keyed durable store; every collection mutation is
// written through it before the mutation is considered complete.
type KVStore interface {
	Get(key string) ([]byte, error) // ErrKeyNotFound when absent
	Set(key string, value []byte) error
	Delete(key string) error
}

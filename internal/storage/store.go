// Package storage provides the small persistence port used by the client-side
// state managers for data that must survive a restart (cart contents, UI
// preferences). Implementations turn storage failures into ordinary error
// values so callers can decide whether a failed write is fatal.
package storage

// Store is a key/value persistence port.
type Store interface {
	// Get returns the value stored under key. The boolean reports whether the
	// key was present; a missing key is not an error.
	Get(key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string) error
}

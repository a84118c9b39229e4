package store

import "github.com/google/uuid"

// newID returns a fresh UUIDv4 string. All entity rows use UUID ids so rows
// created by the sweeps are indistinguishable from user-created ones.
func newID() string {
	return uuid.NewString()
}

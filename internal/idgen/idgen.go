// Package idgen generates the opaque request id that identifies one send
// session (spec.md §3), the way internal/session/manager.go generated
// session ids with uuid.NewString().
package idgen

import "github.com/google/uuid"

// RequestID returns a fresh opaque session identifier. The full UUID is
// overkill for a value that only needs to be unique per terminal session,
// but reusing the teacher's id-generation library keeps one source of
// randomness for the whole program instead of hand-rolling another.
func RequestID() string {
	return uuid.NewString()
}

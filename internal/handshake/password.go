// Package handshake encodes the optional shared-secret password carried in
// the "send" frame (spec.md §3, §4.4). It is adapted from the teacher's
// internal/crypto/crypto.go, which hashed chunk payloads with SHA-256 for
// content verification; this protocol has no per-chunk verification
// (spec.md Non-goals: "no authentication beyond a shared-secret handshake
// password"), so the only surviving use of that hash primitive is binding
// the password to the session's request id so a captured password frame
// can't be replayed against a different session.
package handshake

import (
	"crypto/sha256"
	"encoding/hex"
)

// EncodePassword binds password to requestID so the encoded value sent on
// the wire is meaningless outside this session.
func EncodePassword(requestID, password string) string {
	if password == "" {
		return ""
	}
	h := sha256.Sum256([]byte(requestID + ":" + password))
	return hex.EncodeToString(h[:])
}

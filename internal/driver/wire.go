package driver

import "github.com/deb2000-sudo/termcargo/internal/codec"

// wrap serializes and envelopes one outgoing command (spec.md §6).
func wrap(requestID string, cmd codec.Command) string {
	return codec.Wrap(requestID, cmd.Serialize())
}

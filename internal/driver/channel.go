package driver

// Channel is the outbound terminal byte-stream the driver owns (spec.md
// §5: "the outbound channel is owned by the driver; only the manager's
// serialization helper writes to it"). WriteFrame blocks until the bytes
// have been handed off; the driver treats that return as "writing
// finished" (spec.md §4.7) and only then produces the next chunk group,
// which is what bounds the loop's memory to one in-flight chunk.
type Channel interface {
	WriteFrame(b []byte) error
}

// WriterChannel adapts any io.Writer (the teacher's tcp_sender wrote
// length-prefixed frames straight to a net.Conn; here the destination is
// just the terminal's stdout) into a Channel.
type WriterChannel struct {
	w interface {
		Write(p []byte) (int, error)
	}
}

// NewWriterChannel wraps w as a Channel.
func NewWriterChannel(w interface {
	Write(p []byte) (int, error)
}) *WriterChannel {
	return &WriterChannel{w: w}
}

// WriteFrame writes b in full.
func (c *WriterChannel) WriteFrame(b []byte) error {
	_, err := c.w.Write(b)
	return err
}

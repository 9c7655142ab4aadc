package playback

import "github.com/cockroachdb/errors"

// Error categories. Daemon adapters mark their errors with one of these so
// callers can classify them with errors.Is.
var (
	ErrTransport = errors.New("transport error")
	ErrProtocol  = errors.New("protocol error")
)

// ErrNotConnected is returned by Poll when the daemon is not connected.
var ErrNotConnected = errors.Mark(errors.New("not connected to daemon"), ErrTransport)

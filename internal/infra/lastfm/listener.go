package lastfm

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Handler receives decoded commands.
type Handler func(cmd Command, fields map[string]string)

// Listener accepts protocol connections and decodes one line from each.
// It stands in for the Last.fm client during development and tests.
type Listener struct {
	ln      net.Listener
	timeout time.Duration
	log     zerolog.Logger
}

// Listen starts listening on addr.
func Listen(addr string, log zerolog.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return &Listener{ln: ln, timeout: 5 * time.Second, log: log}, nil
}

// Addr returns the listening address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Serve handles connections one at a time until ctx is cancelled or the
// listener is closed.
func (l *Listener) Serve(ctx context.Context, handle Handler) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.ln.Close()
	})
	defer stop()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return errors.Wrap(err, "failed to accept connection")
		}
		l.handle(conn, handle)
	}
}

func (l *Listener) handle(conn net.Conn, handle Handler) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(l.timeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		l.log.Warn().Err(err).Msgf("Incomplete command from %s: %q", conn.RemoteAddr(), line)
		return
	}

	cmd, fields, err := Decode(line)
	if err != nil {
		l.log.Warn().Err(err).Msgf("Ignoring command from %s", conn.RemoteAddr())
		return
	}
	handle(cmd, fields)
}

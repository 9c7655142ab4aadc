// Package mpd adapts the gompd client to the poller's Daemon interface.
package mpd

import (
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	gompd "github.com/fhs/gompd/v2/mpd"

	"github.com/osa030/mpdlfm/internal/app/playback"
)

// Client is a reconnectable MPD connection. The zero value is disconnected.
// It is not safe for concurrent use.
type Client struct {
	conn *gompd.Client
}

var _ playback.Daemon = (*Client)(nil)

// New creates a new, not yet connected client.
func New() *Client {
	return &Client{}
}

// Connect dials the daemon and authenticates when password is set.
// A host starting with "/" is treated as a unix socket path.
func (c *Client) Connect(host string, port int, password string) error {
	network, addr := "tcp", net.JoinHostPort(host, strconv.Itoa(port))
	if strings.HasPrefix(host, "/") {
		network, addr = "unix", host
	}

	conn, err := gompd.DialAuthenticated(network, addr, password)
	if err != nil {
		// a rejected password still leaves an open connection
		if conn != nil {
			_ = conn.Close()
		}
		return classify(errors.Wrapf(err, "failed to connect to %s", addr))
	}
	c.conn = conn
	return nil
}

// Ping checks that the connection is alive.
func (c *Client) Ping() error {
	if c.conn == nil {
		return playback.ErrNotConnected
	}
	if err := c.conn.Ping(); err != nil {
		return classify(errors.Wrap(err, "ping failed"))
	}
	return nil
}

// CurrentSong returns the attributes of the loaded song. The map is empty
// when nothing is loaded.
func (c *Client) CurrentSong() (map[string]string, error) {
	if c.conn == nil {
		return nil, playback.ErrNotConnected
	}
	attrs, err := c.conn.CurrentSong()
	if err != nil {
		return nil, classify(errors.Wrap(err, "currentsong failed"))
	}
	return attrs, nil
}

// Status returns the daemon status attributes.
func (c *Client) Status() (map[string]string, error) {
	if c.conn == nil {
		return nil, playback.ErrNotConnected
	}
	attrs, err := c.conn.Status()
	if err != nil {
		return nil, classify(errors.Wrap(err, "status failed"))
	}
	return attrs, nil
}

// Close drops the connection. Closing a disconnected client is a no-op.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return classify(errors.Wrap(err, "close failed"))
	}
	return nil
}

// classify marks socket-level failures as transport errors and everything
// else (ACK replies, malformed responses) as protocol errors.
func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.As(err, &netErr):
		return errors.Mark(err, playback.ErrTransport)
	default:
		return errors.Mark(err, playback.ErrProtocol)
	}
}

// Package lastfm talks to the local Last.fm client over its line protocol.
package lastfm

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/osa030/mpdlfm/internal/app/playback"
	"github.com/osa030/mpdlfm/internal/domain/track"
)

// DefaultPort is the port the Last.fm client listens on.
const DefaultPort = 33367

// DefaultClientID is the client id the Last.fm client knows (mpdscribble's).
const DefaultClientID = "mdc"

// Config represents Last.fm client connection configuration.
type Config struct {
	Host    string
	Port    int
	ID      string
	Timeout time.Duration // Bound on connect and on send
}

// Client sends one command per connection to the Last.fm client.
// It implements playback.Sink.
type Client struct {
	addr    string
	id      string
	timeout time.Duration
	log     zerolog.Logger
}

var _ playback.Sink = (*Client)(nil)

// New creates a new Last.fm client.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ID == "" {
		cfg.ID = DefaultClientID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Client{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		id:      cfg.ID,
		timeout: cfg.Timeout,
		log:     log,
	}
}

// Addr returns the listener address commands are sent to.
func (c *Client) Addr() string {
	return c.addr
}

// SendCommand delivers one command. Delivery is best effort: failures are
// logged and never returned, a missing listener is a normal condition.
func (c *Client) SendCommand(ctx context.Context, cmd Command, fields map[string]string) {
	line := Encode(cmd, c.id, fields)
	if err := c.Send(ctx, line); err != nil {
		c.log.Warn().Err(err).Msgf("No connection to the Last.fm client (%s)", c.addr)
		return
	}
	c.log.Debug().Msgf("Sent: %s", strings.TrimSpace(line))
}

// Send writes an encoded line over a fresh connection and closes it.
// No reply is read.
func (c *Client) Send(ctx context.Context, line string) error {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to connect"), playback.ErrTransport)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to set deadline"), playback.ErrTransport)
	}

	if _, err := io.WriteString(conn, line); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to send command"), playback.ErrTransport)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return errors.Mark(errors.Wrap(err, "failed to close write side"), playback.ErrTransport)
		}
	}
	return nil
}

// OnTrackChanged reports a newly started track with START. A track whose
// tags are not valid text is never reported; STOP is sent instead.
func (c *Client) OnTrackChanged(ctx context.Context, t track.Info) {
	c.log.Info().Msg("A new track started playing")

	if err := t.Validate(); err != nil {
		c.log.Error().Err(err).Msg("Invalid character sequence in tag value")
		c.SendCommand(ctx, CommandStop, nil)
		return
	}

	if t.IsComplete() {
		c.log.Info().Msgf("Track: %s - %s (%s)", t.Artist, t.Title, t.File)
	} else {
		// The Last.fm client decides what to do with short or untagged files
		c.log.Warn().Msgf("Track has no tags or is too short, it will probably not be scrobbled (%s)", t.File)
	}

	c.SendCommand(ctx, CommandStart, map[string]string{
		FieldArtist:        t.Artist,
		FieldTitle:         t.Title,
		FieldAlbum:         t.Album,
		FieldMusicBrainzID: "",
		FieldLength:        strconv.Itoa(t.Duration),
		FieldPath:          t.File,
	})
}

// OnStateChanged maps playback transitions to RESUME, STOP and PAUSE.
func (c *Client) OnStateChanged(ctx context.Context, from, to playback.State) {
	switch to {
	case playback.StatePlaying:
		c.log.Info().Msg("Playback resumed")
		c.SendCommand(ctx, CommandResume, nil)
	case playback.StateStopped:
		c.log.Info().Msg("Playback stopped")
		c.SendCommand(ctx, CommandStop, nil)
	case playback.StatePaused:
		c.log.Info().Msg("Playback paused")
		c.SendCommand(ctx, CommandPause, nil)
	default:
		c.log.Warn().Msgf("MPD is in an unknown state: %s (was %s)", to, from)
	}
}

package playback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/osa030/mpdlfm/internal/domain/track"
)

// streamPattern matches URIs that are never resolved to local files.
var streamPattern = regexp.MustCompile(`(?i)^(https?|mms|rtsp)://.+`)

// IsStream reports whether file is a network stream URI.
func IsStream(file string) bool {
	return streamPattern.MatchString(file)
}

// Daemon is the connection to the player daemon.
// Implementations must mark their errors with ErrTransport or ErrProtocol.
type Daemon interface {
	Connect(host string, port int, password string) error
	Ping() error
	CurrentSong() (map[string]string, error)
	Status() (map[string]string, error)
	Close() error
}

// PollerConfig holds poller configuration.
type PollerConfig struct {
	Host     string
	Port     int
	Password string
	Root     string // Music root; empty disables path resolution
}

// Poller owns the daemon connection and derives events from its status.
// It is not safe for concurrent use.
type Poller struct {
	daemon Daemon
	sink   Sink
	config PollerConfig
	log    zerolog.Logger

	serverName string
	status     ConnectionStatus

	// Last observed snapshot, used for diffing only
	lastFile  string
	lastState State

	// Raw value of the last unknown state reported
	lastUnknown    string
	inUnknownState bool
}

// NewPoller creates a new poller.
func NewPoller(config PollerConfig, daemon Daemon, sink Sink, log zerolog.Logger) *Poller {
	serverName := fmt.Sprintf("%s:%d", config.Host, config.Port)
	if config.Password != "" {
		serverName = "******@" + serverName
	}

	return &Poller{
		daemon:     daemon,
		sink:       sink,
		config:     config,
		log:        log,
		serverName: serverName,
		status:     StatusUninitialized,
		lastState:  StateNone,
	}
}

// Status returns the current connection status.
func (p *Poller) Status() ConnectionStatus {
	return p.status
}

// Connect makes sure the daemon connection is alive and returns the
// resulting status. It is safe to call every cycle: a healthy connection
// costs one ping, and the full handshake only runs when the ping fails.
func (p *Poller) Connect() ConnectionStatus {
	if p.status == StatusConnected {
		err := p.daemon.Ping()
		if err == nil {
			return p.status
		}
		p.log.Debug().Err(err).Msgf("Ping to MPD (%s) failed", p.serverName)
	}

	// Drop whatever is left of the old connection before dialing again
	_ = p.daemon.Close()

	if err := p.handshake(); err != nil {
		_ = p.daemon.Close()
		if p.status == StatusConnected {
			p.log.Error().Err(err).Msgf("Lost connection to MPD (%s)", p.serverName)
		} else {
			p.log.Error().Err(err).Msgf("Cannot connect to MPD (%s), check the server address and password", p.serverName)
		}
		p.status = StatusDisconnected
		return p.status
	}

	if p.status == StatusUninitialized {
		p.log.Info().Msgf("Connection to MPD established (%s)", p.serverName)
	} else {
		p.log.Warn().Msgf("Reconnected to MPD (%s)", p.serverName)
	}
	p.status = StatusConnected
	return p.status
}

func (p *Poller) handshake() error {
	if err := p.daemon.Connect(p.config.Host, p.config.Port, p.config.Password); err != nil {
		return err
	}
	return p.daemon.Ping()
}

// Poll fetches one snapshot and notifies the sink of any change. The caller
// must have seen StatusConnected from Connect. On a fetch error the last
// observed snapshot is left untouched.
func (p *Poller) Poll(ctx context.Context) error {
	if p.status != StatusConnected {
		return ErrNotConnected
	}

	snap, err := p.fetch()
	if err != nil {
		p.log.Warn().Err(err).Msg("Cannot get current track information")
		return err
	}

	p.diff(ctx, snap)
	return nil
}

func (p *Poller) fetch() (Snapshot, error) {
	song, err := p.daemon.CurrentSong()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "failed to fetch current song")
	}
	status, err := p.daemon.Status()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "failed to fetch status")
	}

	info := track.FromAttrs(song)
	info.File = p.resolve(info.File)

	state := ParseState(status["state"])
	if state != StateUnknown {
		p.inUnknownState = false
	} else if raw := status["state"]; !p.inUnknownState || raw != p.lastUnknown {
		p.log.Warn().Msgf("MPD reported an unknown state: %q", raw)
		p.lastUnknown, p.inUnknownState = raw, true
	}

	return Snapshot{Track: info, State: state}, nil
}

// resolve rewrites a local daemon URI to an absolute path under the music
// root when that path exists. Streams and unresolvable files are returned as is.
func (p *Poller) resolve(file string) string {
	if p.config.Root == "" || file == "" || IsStream(file) {
		return file
	}

	full := filepath.Join(p.config.Root, strings.TrimPrefix(file, "file://"))
	if _, err := os.Stat(full); err != nil {
		return file
	}
	return full
}

func (p *Poller) diff(ctx context.Context, snap Snapshot) {
	// The daemon may already be paused or playing when we start; that is
	// not a transition.
	if snap.State != p.lastState && p.lastState != StateNone {
		p.sink.OnStateChanged(ctx, p.lastState, snap.State)
	}

	// Resuming from stop counts as a new play even for the same file
	if (snap.Track.File != p.lastFile || p.lastState == StateStopped) && snap.State == StatePlaying {
		p.sink.OnTrackChanged(ctx, snap.Track)
	}

	p.lastFile = snap.Track.File
	p.lastState = snap.State
}

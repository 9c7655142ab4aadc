// Package playback tracks the player daemon and turns its status into
// track and state events.
package playback

import "strings"

// State represents the playback state reported by the daemon.
type State int

const (
	StateNone    State = iota // Nothing observed yet
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
	StateStopped              // Playback is stopped
	StateUnknown              // Daemon reported a state we do not know
)

// ParseState maps the daemon "state" attribute to a State.
func ParseState(s string) State {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "play":
		return StatePlaying
	case "pause":
		return StatePaused
	case "stop":
		return StateStopped
	default:
		return StateUnknown
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ConnectionStatus represents the health of the daemon connection.
type ConnectionStatus int

const (
	StatusUninitialized ConnectionStatus = iota // Never connected
	StatusConnected                             // Last ping or handshake succeeded
	StatusDisconnected                          // Last ping and reconnect failed
)

// String returns the string representation of the status.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

package playback

import (
	"context"

	"github.com/osa030/mpdlfm/internal/domain/track"
)

// Snapshot is one poll cycle's observation of the daemon.
type Snapshot struct {
	Track track.Info // Empty when nothing is loaded
	State State
}

// Sink receives the events derived from consecutive snapshots.
type Sink interface {
	// OnTrackChanged is called when a new track starts playing.
	OnTrackChanged(ctx context.Context, t track.Info)
	// OnStateChanged is called when the playback state differs from the
	// previous poll. It is never called for the first poll.
	OnStateChanged(ctx context.Context, from, to State)
}

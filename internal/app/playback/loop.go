package playback

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Source is what the loop drives each cycle. *Poller implements it.
type Source interface {
	Connect() ConnectionStatus
	Poll(ctx context.Context) error
}

// LoopConfig holds loop pacing.
type LoopConfig struct {
	ConnectedInterval    time.Duration // Pause between polls while connected
	DisconnectedInterval time.Duration // Pause between reconnect attempts
}

// Loop is the sequential connect, poll, sleep driver.
type Loop struct {
	source Source
	config LoopConfig
	log    zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewLoop creates a new loop.
func NewLoop(source Source, config LoopConfig, log zerolog.Logger) *Loop {
	return &Loop{
		source: source,
		config: config,
		log:    log,
		sleep:  sleepContext,
	}
}

// Run polls until ctx is cancelled and returns ctx.Err().
// Errors from a cycle are logged by the source and never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info().Msgf("Polling every %v (retrying every %v while disconnected)",
		l.config.ConnectedInterval, l.config.DisconnectedInterval)

	for {
		if l.source.Connect() != StatusConnected {
			if err := l.sleep(ctx, l.config.DisconnectedInterval); err != nil {
				return err
			}
			continue
		}

		_ = l.source.Poll(ctx)

		if err := l.sleep(ctx, l.config.ConnectedInterval); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

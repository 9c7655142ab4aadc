// Package launcher starts the Last.fm client when it is not already running.
package launcher

import (
	"context"
	"os/exec"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// Config represents launcher configuration.
type Config struct {
	Commands []string      // Executable names, tried in order
	Args     []string      // Arguments passed to every command
	Wait     time.Duration // Grace period after a successful start
}

// Launcher is a best-effort process starter. Nothing it does is fatal.
type Launcher struct {
	config Config
	log    zerolog.Logger

	running func(ctx context.Context, name string) (bool, error)
	start   func(name string, args []string) error
	sleep   func(ctx context.Context, d time.Duration)
}

// New creates a new launcher.
func New(config Config, log zerolog.Logger) *Launcher {
	return &Launcher{
		config:  config,
		log:     log,
		running: isRunning,
		start:   startDetached,
		sleep:   sleepContext,
	}
}

// Launch makes sure one of the configured commands runs. It reports whether
// a client was found running or was started.
func (l *Launcher) Launch(ctx context.Context) bool {
	for _, name := range l.config.Commands {
		running, err := l.running(ctx, name)
		if err != nil {
			l.log.Debug().Err(err).Msg("Cannot list processes")
		}
		if running {
			l.log.Debug().Msgf("Process %s is already running", name)
			return true
		}
	}

	for _, name := range l.config.Commands {
		l.log.Debug().Msgf("Trying to start process %s", name)
		if err := l.start(name, l.config.Args); err != nil {
			l.log.Debug().Err(err).Msgf("Cannot start process %s", name)
			continue
		}

		l.log.Debug().Msgf("Process %s started, waiting %v", name, l.config.Wait)
		l.sleep(ctx, l.config.Wait)
		return true
	}
	return false
}

// isRunning reports whether a process with the given executable name exists.
func isRunning(ctx context.Context, name string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to list processes")
	}
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			// The process may have exited meanwhile
			continue
		}
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// startDetached starts name with its standard streams on the null device.
func startDetached(name string, args []string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to start %s", name)
	}
	// Reap the child whenever it exits
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

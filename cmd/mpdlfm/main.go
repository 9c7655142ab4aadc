// Package main provides the MPD to Last.fm client bridge entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mpdlfm/internal/app/playback"
	"github.com/osa030/mpdlfm/internal/infra/config"
	"github.com/osa030/mpdlfm/internal/infra/lastfm"
	"github.com/osa030/mpdlfm/internal/infra/launcher"
	"github.com/osa030/mpdlfm/internal/infra/logger"
	"github.com/osa030/mpdlfm/internal/infra/mpd"
)

var (
	app         = kingpin.New("mpdlfm", "Forward MPD playback events to the local Last.fm client")
	configPaths = app.Flag("config", "Path to config file (repeatable; default: standard locations)").Strings()
	verbose     = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile     = app.Flag("logfile", "Path to log file (\"-\" for console only)").String()
	noLaunch    = app.Flag("no-launch", "Do not try to start the Last.fm client").Bool()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Console logger until the config tells where the log file is
	if _, err := logger.Init(logger.Config{Output: "stdout", Level: "info"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	paths := *configPaths
	if len(paths) == 0 {
		paths = config.DefaultPaths()
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Override with command-line flags if specified
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logfile != "" {
		cfg.Log.File = *logfile
	}

	log, err := logger.Init(logger.Config{
		Output: "stdout",
		Level:  cfg.Log.Level,
		File:   cfg.LogFile(),
	})
	if err != nil {
		zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
	}
	log = log.With().Str("run", uuid.New().String()).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Msgf("Bridge error: %v", err)
		os.Exit(1)
	}
}

// run wires the components and polls until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().Msg("Starting")

	client := lastfm.New(lastfm.Config{
		Host:    cfg.Client.Host,
		Port:    cfg.Client.Port,
		ID:      cfg.Client.ID,
		Timeout: cfg.ClientTimeout(),
	}, log)

	if !cfg.Launcher.Disabled && !*noLaunch {
		launcher.New(launcher.Config{
			Commands: cfg.Launcher.Commands,
			Args:     cfg.Launcher.Args,
			Wait:     cfg.LauncherWait(),
		}, log).Launch(ctx)
	}

	poller := playback.NewPoller(playback.PollerConfig{
		Host:     cfg.MPD.Host,
		Port:     cfg.MPD.Port,
		Password: cfg.MPD.Password,
		Root:     cfg.MPD.Root,
	}, mpd.New(), client, log)

	loop := playback.NewLoop(poller, playback.LoopConfig{
		ConnectedInterval:    cfg.ConnectedInterval(),
		DisconnectedInterval: cfg.DisconnectedInterval(),
	}, log)

	err := loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("Stopped")
		return nil
	}
	return err
}

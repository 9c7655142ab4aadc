// Package main provides a CLI for exercising the Last.fm client protocol.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mpdlfm/internal/infra/lastfm"
	"github.com/osa030/mpdlfm/internal/infra/logger"
)

var (
	app      = kingpin.New("lfmcli", "Last.fm client protocol tool for testing")
	host     = app.Flag("host", "Last.fm client host").Default("localhost").String()
	port     = app.Flag("port", "Last.fm client port").Default(strconv.Itoa(lastfm.DefaultPort)).Int()
	clientID = app.Flag("id", "Client id sent with every command").Default(lastfm.DefaultClientID).String()
	timeout  = app.Flag("timeout", "Connect and send timeout").Default("5s").Duration()

	// send command
	sendCmd    = app.Command("send", "Send one command")
	sendName   = sendCmd.Arg("command", "START, STOP, PAUSE or RESUME").Required().Enum("START", "STOP", "PAUSE", "RESUME", "start", "stop", "pause", "resume")
	sendArtist = sendCmd.Flag("artist", "Artist (START only)").String()
	sendTitle  = sendCmd.Flag("title", "Title (START only)").String()
	sendAlbum  = sendCmd.Flag("album", "Album (START only)").String()
	sendLength = sendCmd.Flag("length", "Length in seconds (START only)").Int()
	sendPath   = sendCmd.Flag("path", "File path (START only)").String()

	// listen command
	listenCmd = app.Command("listen", "Print commands received on the Last.fm client port")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	log, err := logger.Init(logger.Config{Output: "stderr", Level: "info"})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case sendCmd.FullCommand():
		send(ctx)
	case listenCmd.FullCommand():
		l, err := lastfm.Listen(net.JoinHostPort(*host, strconv.Itoa(*port)), log)
		if err != nil {
			zlog.Fatal().Msgf("Failed to listen: %v", err)
		}
		fmt.Printf("Listening on %s\n", l.Addr())
		if err := l.Serve(ctx, printCommand); err != nil {
			zlog.Fatal().Msgf("Listener error: %v", err)
		}
	}
}

func send(ctx context.Context) {
	cmd := lastfm.Command(strings.ToUpper(*sendName))

	var fields map[string]string
	if cmd == lastfm.CommandStart {
		fields = map[string]string{
			lastfm.FieldArtist:        *sendArtist,
			lastfm.FieldTitle:         *sendTitle,
			lastfm.FieldAlbum:         *sendAlbum,
			lastfm.FieldMusicBrainzID: "",
			lastfm.FieldLength:        strconv.Itoa(*sendLength),
			lastfm.FieldPath:          *sendPath,
		}
	}

	client := lastfm.New(lastfm.Config{
		Host:    *host,
		Port:    *port,
		ID:      *clientID,
		Timeout: *timeout,
	}, zlog.Logger)

	line := lastfm.Encode(cmd, *clientID, fields)
	if err := client.Send(ctx, line); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Sent to %s: %s", client.Addr(), line)
}

func printCommand(cmd lastfm.Command, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("[%s] %s\n", time.Now().Format(time.TimeOnly), cmd)
	for _, k := range keys {
		fmt.Printf("  %s = %q\n", k, fields[k])
	}
}

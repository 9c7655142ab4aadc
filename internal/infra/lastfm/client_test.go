package lastfm

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/mpdlfm/internal/app/playback"
	"github.com/osa030/mpdlfm/internal/domain/track"
)

type received struct {
	cmd    Command
	fields map[string]string
}

// startListener runs a Listener on a loopback port until the test ends.
func startListener(t *testing.T) (int, <-chan received) {
	t.Helper()

	l, err := Listen("127.0.0.1:0", zerolog.Nop())
	require.NoError(t, err)

	ch := make(chan received, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Serve(ctx, func(cmd Command, fields map[string]string) {
			ch <- received{cmd, fields}
		})
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return l.Addr().(*net.TCPAddr).Port, ch
}

func next(t *testing.T, ch <-chan received) received {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for command")
		return received{}
	}
}

func newTestClient(port int, log zerolog.Logger) *Client {
	return New(Config{Host: "127.0.0.1", Port: port, ID: "mdc", Timeout: time.Second}, log)
}

func TestClient_OnTrackChanged(t *testing.T) {
	port, ch := startListener(t)
	client := newTestClient(port, zerolog.Nop())

	client.OnTrackChanged(context.Background(), track.Info{
		Artist:        "Simon & Garfunkel",
		Title:         "The Boxer",
		Album:         "Bridge over Troubled Water",
		File:          "/music/sg/boxer.flac",
		Duration:      308,
		MusicBrainzID: "ignored",
	})

	r := next(t, ch)
	assert.Equal(t, CommandStart, r.cmd)
	assert.Equal(t, map[string]string{
		FieldClient:        "mdc",
		FieldArtist:        "Simon & Garfunkel",
		FieldTitle:         "The Boxer",
		FieldAlbum:         "Bridge over Troubled Water",
		FieldMusicBrainzID: "",
		FieldLength:        "308",
		FieldPath:          "/music/sg/boxer.flac",
	}, r.fields)
}

func TestClient_OnTrackChanged_IncompleteTags(t *testing.T) {
	port, ch := startListener(t)
	var buf bytes.Buffer
	client := newTestClient(port, zerolog.New(&buf))

	client.OnTrackChanged(context.Background(), track.Info{File: "untagged.mp3"})

	r := next(t, ch)
	assert.Equal(t, CommandStart, r.cmd)
	assert.Equal(t, "0", r.fields[FieldLength])
	assert.Equal(t, "untagged.mp3", r.fields[FieldPath])
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "will probably not be scrobbled")
}

func TestClient_OnTrackChanged_InvalidEncodingSendsStop(t *testing.T) {
	port, ch := startListener(t)
	var buf bytes.Buffer
	client := newTestClient(port, zerolog.New(&buf))

	client.OnTrackChanged(context.Background(), track.Info{
		Artist:   "Bad \xc3\x28",
		Title:    "Title",
		File:     "a.mp3",
		Duration: 100,
	})

	r := next(t, ch)
	assert.Equal(t, CommandStop, r.cmd)
	assert.Equal(t, map[string]string{FieldClient: "mdc"}, r.fields)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestClient_OnStateChanged(t *testing.T) {
	tests := []struct {
		to       playback.State
		expected Command
	}{
		{playback.StatePlaying, CommandResume},
		{playback.StateStopped, CommandStop},
		{playback.StatePaused, CommandPause},
	}

	port, ch := startListener(t)
	client := newTestClient(port, zerolog.Nop())

	for _, tt := range tests {
		t.Run(tt.to.String(), func(t *testing.T) {
			client.OnStateChanged(context.Background(), playback.StateNone, tt.to)

			r := next(t, ch)
			assert.Equal(t, tt.expected, r.cmd)
			assert.Equal(t, map[string]string{FieldClient: "mdc"}, r.fields)
		})
	}
}

func TestClient_OnStateChanged_UnknownSendsNothing(t *testing.T) {
	port, ch := startListener(t)
	var buf bytes.Buffer
	client := newTestClient(port, zerolog.New(&buf))
	ctx := context.Background()

	client.OnStateChanged(ctx, playback.StatePlaying, playback.StateUnknown)
	// The listener handles connections in order, so PAUSE arriving first
	// means nothing was sent for the unknown state.
	client.OnStateChanged(ctx, playback.StateUnknown, playback.StatePaused)

	r := next(t, ch)
	assert.Equal(t, CommandPause, r.cmd)
	assert.Contains(t, buf.String(), "unknown state")
}

func TestClient_NoListener(t *testing.T) {
	// Grab a free port and release it so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	var buf bytes.Buffer
	client := newTestClient(port, zerolog.New(&buf))

	err = client.Send(context.Background(), Encode(CommandStop, "mdc", nil))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, playback.ErrTransport))

	assert.NotPanics(t, func() {
		client.SendCommand(context.Background(), CommandStop, nil)
	})
	assert.Contains(t, buf.String(), "No connection to the Last.fm client")
}

func TestNew_Defaults(t *testing.T) {
	client := New(Config{Host: "localhost"}, zerolog.Nop())

	assert.Equal(t, "localhost:33367", client.Addr())
	assert.Equal(t, DefaultClientID, client.id)
	assert.Equal(t, 5*time.Second, client.timeout)
}

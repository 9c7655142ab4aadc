package lastfm

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListener_IgnoresMalformedLines(t *testing.T) {
	port, ch := startListener(t)
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	for _, raw := range []string{"START garbage\n", "no newline", "PAUSE c=mdc\n"} {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		_, err = conn.Write([]byte(raw))
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	}

	r := next(t, ch)
	assert.Equal(t, CommandPause, r.cmd)
	assert.Equal(t, map[string]string{"c": "mdc"}, r.fields)
}

func TestListener_ServeStopsOnCancel(t *testing.T) {
	l, err := Listen("127.0.0.1:0", zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Serve(ctx, func(Command, map[string]string) {})
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

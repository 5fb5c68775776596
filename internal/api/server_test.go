package api

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/playermanager/internal/testutil"
)

func TestServerListenOnFreePort(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = time.Second

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	server := NewServer(handler, cfg, testutil.NopLogger())
	assert.Equal(t, "127.0.0.1:0", server.Addr())

	require.NoError(t, server.Listen())
	addr := server.Addr()
	assert.NotEqual(t, "127.0.0.1:0", addr)

	done := make(chan error, 1)
	go func() { done <- server.Start() }()

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	require.NoError(t, server.Shutdown(context.Background()))
	require.NoError(t, <-done)
}

func TestServerListenTwiceKeepsAddress(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	server := NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())
	require.NoError(t, server.Listen())
	first := server.Addr()
	require.NoError(t, server.Listen())
	assert.Equal(t, first, server.Addr())

	// never served, so Shutdown does not own the listener
	require.NoError(t, server.listener.Close())
}

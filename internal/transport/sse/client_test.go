package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/playermanager/internal/testutil"
)

// readEvent reads lines up to and including the blank line ending one event
func readEvent(t *testing.T, r *bufio.Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestServeSSE_StreamsEvents(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, []string{"event: connected", `data: {"status":"connected"}`}, readEvent(t, reader))

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastEvent("playerConnected", `{"name":"alice"}`)
	assert.Equal(t, []string{"event: playerConnected", `data: {"name":"alice"}`}, readEvent(t, reader))

	cancel()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServeSSE_EndsWhenHubCloses(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()

	done := make(chan struct{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	go func() {
		ServeSSE(rec, req, hub)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after hub closed")
	}
}

func TestServeSSE_RejectsAfterClose(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	hub.Close()

	rec := httptest.NewRecorder()
	ServeSSE(rec, httptest.NewRequest(http.MethodGet, "/", nil), hub)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

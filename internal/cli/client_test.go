package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/whitelist", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["name"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"name":"alice","added":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	var result ListChange
	require.NoError(t, c.Post("/api/v1/whitelist", map[string]string{"name": "alice"}, &result))
	assert.Equal(t, ListChange{Name: "alice", Added: true}, result)
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"FORBIDDEN","message":"Permission denied"}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").Delete("/api/v1/players/alice")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "FORBIDDEN", apiErr.Code)
	assert.Equal(t, "Permission denied (FORBIDDEN)", err.Error())
}

func TestClientPlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").Get("/api/v1/health", nil)
	assert.ErrorContains(t, err, "HTTP 502")
}

func TestPathEscape(t *testing.T) {
	assert.Equal(t, "a%20b", PathEscape("a b"))
	assert.Equal(t, "a%2Fb", PathEscape("a/b"))
}

func TestClientStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event: connected\ndata: {}\n\n: keepalive\n\n" +
			"event: playerJoined\ndata: {\"name\":\"alice\"}\n\n" +
			"event: multi\ndata: a\ndata: b\n\n"))
	}))
	defer srv.Close()

	type ev struct{ event, data string }
	var got []ev
	err := NewClient(srv.URL, "").Stream("/api/v1/players/events", func(event, data string) error {
		got = append(got, ev{event, data})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []ev{
		{"connected", "{}"},
		{"playerJoined", `{"name":"alice"}`},
		{"multi", "a\nb"},
	}, got)
}

func TestClientStreamStopsOnCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("event: a\ndata: 1\n\nevent: b\ndata: 2\n\n"))
	}))
	defer srv.Close()

	stop := errors.New("stop")
	calls := 0
	err := NewClient(srv.URL, "").Stream("/", func(event, data string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOutput(format string) (*Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Output{format: format, w: &buf}, &buf
}

func TestOutputPlayersText(t *testing.T) {
	out, buf := newTestOutput("text")
	out.Print([]Player{
		{"name": "alice", "connected": "true", "instanceID": "3"},
		{"name": "bob", "connected": "false", "instanceID": "1"},
	})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "alice")
	assert.Contains(t, string(lines[0]), "online")
	assert.Contains(t, string(lines[1]), "offline")
}

func TestOutputEmptyLists(t *testing.T) {
	out, buf := newTestOutput("text")
	out.Print([]Player{})
	out.Print(NameList{})
	assert.Equal(t, "No players\n(empty)\n", buf.String())
}

func TestOutputUserText(t *testing.T) {
	out, buf := newTestOutput("text")
	out.Print(User{"name": "root", "admin": true, "email": "root@example.com"})

	assert.Equal(t, "User: root [admin]\n  email: root@example.com\n", buf.String())
}

func TestOutputCommandResult(t *testing.T) {
	out, buf := newTestOutput("text")
	out.Print(CommandResult{
		Command: "/time",
		Results: []CommandDelivery{
			{InstanceID: "1", CommandID: "c1", Delivered: true},
			{InstanceID: "2", Error: "outbound queue full"},
		},
	})

	assert.Contains(t, buf.String(), "instance 1: queued (c1)")
	assert.Contains(t, buf.String(), "instance 2: failed: outbound queue full")
}

func TestOutputPermissionsAnonymous(t *testing.T) {
	out, buf := newTestOutput("text")
	out.Print(Permissions{All: FieldGrants{Read: []string{"admin", "name"}}})

	assert.Contains(t, buf.String(), "Principal: (anonymous)")
	assert.Contains(t, buf.String(), "Read (all users): admin, name")
}

func TestOutputJSON(t *testing.T) {
	out, buf := newTestOutput("json")
	out.Print(HealthResult{Status: "ok", Channels: 2, Players: 5})

	var got HealthResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, HealthResult{Status: "ok", Channels: 2, Players: 5}, got)

	buf.Reset()
	out.PrintMessage("done")
	assert.JSONEq(t, `{"message":"done"}`, buf.String())
}

func TestOutputPlayerEvent(t *testing.T) {
	out, buf := newTestOutput("text")
	out.Print(PlayerEvent{Event: "playerConnected", Player: Player{"name": "alice", "instanceID": "4"}})

	assert.Equal(t, "playerConnected alice (instance 4)\n", buf.String())
}

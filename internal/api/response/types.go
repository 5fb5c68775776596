package response

import (
	"time"

	"github.com/mcoot/playermanager/internal/services/auth"
	"github.com/mcoot/playermanager/internal/services/commands"
)

// LoginResponse is the response for the login endpoint
type LoginResponse struct {
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginResponseFromResult converts an auth.LoginResult
func LoginResponseFromResult(r *auth.LoginResult) LoginResponse {
	return LoginResponse{
		Name:      r.UserName,
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
	}
}

// NameList is a whitelist or banlist
type NameList struct {
	Names []string `json:"names"`
}

// ListChange reports the outcome of adding a name
type ListChange struct {
	Name  string `json:"name"`
	Added bool   `json:"added"`
}

// CommandResult is delivery of a command to one channel
type CommandResult struct {
	ChannelID  string `json:"channelID"`
	InstanceID string `json:"instanceID"`
	CommandID  string `json:"commandID"`
	Delivered  bool   `json:"delivered"`
	Error      string `json:"error,omitempty"`
}

// CommandResultsFromResults converts dispatcher results
func CommandResultsFromResults(results []commands.Result) []CommandResult {
	out := make([]CommandResult, len(results))
	for i, r := range results {
		out[i] = CommandResult{
			ChannelID:  r.ChannelID,
			InstanceID: r.InstanceID,
			CommandID:  r.CommandID,
			Delivered:  r.Err == nil,
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

// CommandResponse is the response for broadcasting a command
type CommandResponse struct {
	Command string          `json:"command"`
	Results []CommandResult `json:"results"`
}

// Health is the response of the health endpoint
type Health struct {
	Status   string `json:"status"`
	Channels int    `json:"channels"`
	Players  int    `json:"players"`
}

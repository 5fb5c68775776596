package database

import (
	"encoding/json"

	"github.com/mcoot/playermanager/internal/model"
)

// Document names, used in logs and errors
const (
	DocumentPlayers   = "playerManager"
	DocumentWhitelist = "whitelist"
	DocumentBanlist   = "banlist"
)

const indent = "    "

type playersDocument struct {
	ManagedPlayers []*model.ManagedPlayer `json:"managedPlayers"`
	Users          []*model.User          `json:"users"`
}

type whitelistDocument struct {
	Whitelist []string `json:"whitelist"`
}

type banlistDocument struct {
	Banlist []string `json:"banlist"`
}

func encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

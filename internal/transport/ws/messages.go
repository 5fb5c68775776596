package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// inboundMessage is any message a reporting channel may send
type inboundMessage struct {
	Type       string          `json:"type"`
	InstanceID json.RawMessage `json:"instanceID,omitempty"`
	Data       string          `json:"data,omitempty"`
	Line       string          `json:"line,omitempty"`
}

var errInvalidInstanceID = errors.New("instanceID must be an integer")

// parseInstanceID accepts a JSON integer or a string holding one and
// returns it in canonical decimal form
func parseInstanceID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errInvalidInstanceID
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", errInvalidInstanceID
		}
	} else {
		text = string(raw)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return "", errInvalidInstanceID
	}
	return strconv.FormatInt(n, 10), nil
}

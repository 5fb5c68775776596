package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Well-known player fields reported by instances
const (
	FieldName       = "name"
	FieldConnected  = "connected"
	FieldInstanceID = "instanceID"
	FieldOnlineTime = "onlineTime"

	fieldOnlineTimeTotal = "onlineTimeTotal"
)

// ManagedPlayer is the last known state of a player across all instances.
// Reported fields are kept verbatim as strings, the way instances send them.
type ManagedPlayer struct {
	Name string
	// Fields holds every reported key except the name
	Fields map[string]string
	// OnlineTimeTotal is the cumulative online time in seconds
	OnlineTimeTotal float64
}

// NewManagedPlayer creates an empty record for the given name
func NewManagedPlayer(name string) *ManagedPlayer {
	return &ManagedPlayer{
		Name:   name,
		Fields: make(map[string]string),
	}
}

// Get returns a reported field value, or "" if absent
func (p *ManagedPlayer) Get(key string) string {
	if key == FieldName {
		return p.Name
	}
	return p.Fields[key]
}

// Set stores a reported field value
func (p *ManagedPlayer) Set(key, value string) {
	if key == FieldName {
		p.Name = value
		return
	}
	if p.Fields == nil {
		p.Fields = make(map[string]string)
	}
	p.Fields[key] = value
}

// Connected reports whether the player is online on some instance
func (p *ManagedPlayer) Connected() bool {
	return p.Fields[FieldConnected] == "true"
}

// InstanceID returns the instance the player was last reported on
func (p *ManagedPlayer) InstanceID() string {
	return p.Fields[FieldInstanceID]
}

// Clone returns a deep copy
func (p *ManagedPlayer) Clone() *ManagedPlayer {
	fields := make(map[string]string, len(p.Fields))
	for k, v := range p.Fields {
		fields[k] = v
	}
	return &ManagedPlayer{
		Name:            p.Name,
		Fields:          fields,
		OnlineTimeTotal: p.OnlineTimeTotal,
	}
}

// MarshalJSON writes the player as a flat object, the shape used by the
// player manager database file
func (p *ManagedPlayer) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+2)
	for k, v := range p.Fields {
		out[k] = v
	}
	out[FieldName] = p.Name
	out[fieldOnlineTimeTotal] = p.OnlineTimeTotal
	return json.Marshal(out)
}

// UnmarshalJSON reads a flat player object. Values written by older
// versions may be numbers or booleans; they are stored as strings.
func (p *ManagedPlayer) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Fields = make(map[string]string, len(raw))
	p.Name = ""
	p.OnlineTimeTotal = 0

	for k, v := range raw {
		switch k {
		case FieldName:
			p.Name = stringify(v)
		case fieldOnlineTimeTotal:
			p.OnlineTimeTotal = ParseSeconds(stringify(v))
		default:
			if v == nil {
				continue
			}
			p.Fields[k] = stringify(v)
		}
	}
	return nil
}

// ParseSeconds coerces a reported time value to a number.
// Anything that does not parse counts as zero.
func ParseSeconds(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// FormatSeconds renders a number of seconds the way instances report them
func FormatSeconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return FormatSeconds(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

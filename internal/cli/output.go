package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case LoginResult:
		o.printLoginResult(v)
	case []Player:
		o.printPlayers(v)
	case Player:
		o.printPlayer(v)
	case PlayerEvent:
		o.printPlayerEvent(v)
	case []User:
		for _, u := range v {
			o.printUser(u)
		}
	case User:
		o.printUser(v)
	case NameList:
		o.printNameList(v)
	case CommandResult:
		o.printCommandResult(v)
	case Permissions:
		o.printPermissions(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// LoginResult response type (matches API)
type LoginResult struct {
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Player is a managed player: a flat map of reported fields
type Player map[string]any

// PlayerEvent is one message of the player event stream
type PlayerEvent struct {
	Event  string `json:"event"`
	Player Player `json:"player"`
}

// User is the subset of a user's fields the caller may read
type User map[string]any

// NameList response type
type NameList struct {
	Names []string `json:"names"`
}

// ListChange response type
type ListChange struct {
	Name  string `json:"name"`
	Added bool   `json:"added"`
}

// CommandResult response type
type CommandResult struct {
	Command string            `json:"command"`
	Results []CommandDelivery `json:"results"`
}

// CommandDelivery is the outcome for one reporting channel
type CommandDelivery struct {
	ChannelID  string `json:"channelID"`
	InstanceID string `json:"instanceID"`
	CommandID  string `json:"commandID"`
	Delivered  bool   `json:"delivered"`
	Error      string `json:"error,omitempty"`
}

// FieldGrants response type
type FieldGrants struct {
	Read  []string `json:"read"`
	Write []string `json:"write"`
}

// Permissions response type
type Permissions struct {
	Principal string                 `json:"principal,omitempty"`
	All       FieldGrants            `json:"all"`
	User      map[string]FieldGrants `json:"user"`
	Cluster   []string               `json:"cluster"`
}

// HealthResult response type
type HealthResult struct {
	Status   string `json:"status"`
	Channels int    `json:"channels"`
	Players  int    `json:"players"`
}

func (o *Output) printLoginResult(r LoginResult) {
	_, _ = fmt.Fprintf(o.w, "Logged in as: %s\n", r.Name)
	_, _ = fmt.Fprintf(o.w, "Expires: %s\n", r.ExpiresAt.Local().Format(time.RFC1123))
}

func (o *Output) printPlayers(players []Player) {
	if len(players) == 0 {
		_, _ = fmt.Fprintln(o.w, "No players")
		return
	}
	for _, p := range players {
		status := "offline"
		if p["connected"] == "true" {
			status = "online"
		}
		_, _ = fmt.Fprintf(o.w, "%-24s %-8s instance %v\n", p["name"], status, p["instanceID"])
	}
}

func (o *Output) printPlayer(p Player) {
	_, _ = fmt.Fprintf(o.w, "Player: %v\n", p["name"])
	for _, k := range sortedKeys(p) {
		if k == "name" {
			continue
		}
		_, _ = fmt.Fprintf(o.w, "  %s: %v\n", k, p[k])
	}
}

func (o *Output) printPlayerEvent(e PlayerEvent) {
	_, _ = fmt.Fprintf(o.w, "%s %v (instance %v)\n", e.Event, e.Player["name"], e.Player["instanceID"])
}

func (o *Output) printUser(u User) {
	admin := ""
	if a, ok := u["admin"].(bool); ok && a {
		admin = " [admin]"
	}
	_, _ = fmt.Fprintf(o.w, "User: %v%s\n", u["name"], admin)
	for _, k := range sortedKeys(u) {
		if k == "name" || k == "admin" {
			continue
		}
		_, _ = fmt.Fprintf(o.w, "  %s: %v\n", k, u[k])
	}
}

func (o *Output) printNameList(l NameList) {
	if len(l.Names) == 0 {
		_, _ = fmt.Fprintln(o.w, "(empty)")
		return
	}
	for _, n := range l.Names {
		_, _ = fmt.Fprintln(o.w, n)
	}
}

func (o *Output) printCommandResult(r CommandResult) {
	_, _ = fmt.Fprintf(o.w, "Command: %s\n", r.Command)
	if len(r.Results) == 0 {
		_, _ = fmt.Fprintln(o.w, "No instances connected")
		return
	}
	for _, d := range r.Results {
		if d.Delivered {
			_, _ = fmt.Fprintf(o.w, "  instance %s: queued (%s)\n", d.InstanceID, d.CommandID)
		} else {
			_, _ = fmt.Fprintf(o.w, "  instance %s: failed: %s\n", d.InstanceID, d.Error)
		}
	}
}

func (o *Output) printPermissions(p Permissions) {
	principal := p.Principal
	if principal == "" {
		principal = "(anonymous)"
	}
	_, _ = fmt.Fprintf(o.w, "Principal: %s\n", principal)
	_, _ = fmt.Fprintf(o.w, "Read (all users): %s\n", strings.Join(p.All.Read, ", "))
	_, _ = fmt.Fprintf(o.w, "Write (all users): %s\n", strings.Join(p.All.Write, ", "))
	for _, name := range sortedKeys(p.User) {
		g := p.User[name]
		_, _ = fmt.Fprintf(o.w, "User %s: read %s; write %s\n", name, strings.Join(g.Read, ", "), strings.Join(g.Write, ", "))
	}
	_, _ = fmt.Fprintf(o.w, "Cluster: %s\n", strings.Join(p.Cluster, ", "))
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Channels: %d\n", h.Channels)
	_, _ = fmt.Fprintf(o.w, "Players: %d\n", h.Players)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

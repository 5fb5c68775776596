package model

import (
	"encoding/json"
	"sort"
)

// Cluster-wide actions a caller may be granted
const (
	ActionReadWhitelist = "readWhitelist"
	ActionEditWhitelist = "editWhitelist"
	ActionReadBanlist   = "readBanlist"
	ActionEditBanlist   = "editBanlist"
	ActionEditPlayers   = "editPlayers"
	ActionCreateUsers   = "createUsers"
	ActionRunCommand    = "runCommand"
)

// AllClusterActions lists every cluster action, in a stable order
var AllClusterActions = []string{
	ActionReadWhitelist,
	ActionEditWhitelist,
	ActionReadBanlist,
	ActionEditBanlist,
	ActionEditPlayers,
	ActionCreateUsers,
	ActionRunCommand,
}

// PrincipalMaster names the caller holding the master token
const PrincipalMaster = "master"

// Grants is a set of field or action names.
// The zero value is an empty set ready to use via Add on a pointer receiver.
type Grants map[string]struct{}

// NewGrants creates a set containing the given names
func NewGrants(names ...string) Grants {
	g := make(Grants, len(names))
	for _, n := range names {
		g[n] = struct{}{}
	}
	return g
}

// Add inserts names into the set
func (g *Grants) Add(names ...string) {
	if *g == nil {
		*g = make(Grants, len(names))
	}
	for _, n := range names {
		(*g)[n] = struct{}{}
	}
}

// Has reports whether name is in the set
func (g Grants) Has(name string) bool {
	_, ok := g[name]
	return ok
}

// Union adds every member of other to the set
func (g *Grants) Union(other Grants) {
	for n := range other {
		g.Add(n)
	}
}

// List returns the members sorted
func (g Grants) List() []string {
	out := make([]string, 0, len(g))
	for n := range g {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Clone returns a copy of the set
func (g Grants) Clone() Grants {
	c := make(Grants, len(g))
	for n := range g {
		c[n] = struct{}{}
	}
	return c
}

// MarshalJSON writes the set as a sorted array
func (g Grants) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.List())
}

// UnmarshalJSON reads the set from an array
func (g *Grants) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*g = NewGrants(names...)
	return nil
}

// FieldGrants holds readable and writable field names
type FieldGrants struct {
	Read  Grants `json:"read"`
	Write Grants `json:"write"`
}

// Union adds the other grants
func (f *FieldGrants) Union(other FieldGrants) {
	f.Read.Union(other.Read)
	f.Write.Union(other.Write)
}

// Clone returns a deep copy
func (f FieldGrants) Clone() FieldGrants {
	return FieldGrants{Read: f.Read.Clone(), Write: f.Write.Clone()}
}

// PermissionSet is what one token is allowed to see and do.
// It is computed per request and never persisted.
type PermissionSet struct {
	All      FieldGrants            `json:"all"`
	User     map[string]FieldGrants `json:"user"`
	Cluster  Grants                 `json:"cluster"`
	Instance map[string]Grants      `json:"instance"`
	// Principal is the authenticated user name, PrincipalMaster, or empty
	Principal string `json:"principal,omitempty"`
}

// NewPermissionSet returns an empty set with all maps allocated
func NewPermissionSet() *PermissionSet {
	return &PermissionSet{
		All:      FieldGrants{Read: Grants{}, Write: Grants{}},
		User:     make(map[string]FieldGrants),
		Cluster:  Grants{},
		Instance: make(map[string]Grants),
	}
}

// GrantUser adds read/write grants about one user
func (p *PermissionSet) GrantUser(name string, read, write []string) {
	fg := p.User[name]
	fg.Read.Add(read...)
	fg.Write.Add(write...)
	p.User[name] = fg
}

// Union adds every grant of other. Nothing is ever removed.
func (p *PermissionSet) Union(other *PermissionSet) {
	if other == nil {
		return
	}
	p.All.Union(other.All)
	for name, fg := range other.User {
		cur := p.User[name]
		cur.Union(fg)
		p.User[name] = cur
	}
	p.Cluster.Union(other.Cluster)
	for id, g := range other.Instance {
		cur := p.Instance[id]
		cur.Union(g)
		p.Instance[id] = cur
	}
	if p.Principal == "" {
		p.Principal = other.Principal
	}
}

// Clone returns a deep copy
func (p *PermissionSet) Clone() *PermissionSet {
	c := NewPermissionSet()
	c.Union(p)
	c.Principal = p.Principal
	return c
}

// CanRead reports whether a field of the named user is visible
func (p *PermissionSet) CanRead(user, field string) bool {
	return p.All.Read.Has(field) || p.User[user].Read.Has(field)
}

// CanWrite reports whether a field of the named user is editable
func (p *PermissionSet) CanWrite(user, field string) bool {
	return p.All.Write.Has(field) || p.User[user].Write.Has(field)
}

// HasCluster reports whether a cluster action is granted
func (p *PermissionSet) HasCluster(action string) bool {
	return p.Cluster.Has(action)
}

// Authenticated reports whether any principal was identified
func (p *PermissionSet) Authenticated() bool {
	return p.Principal != ""
}

package permissions

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/mcoot/playermanager/internal/dependencies/clock"
	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/services/database"
)

// Request is what an Extension sees while a token is being resolved
type Request struct {
	// Permissions is a copy of the grants resolved so far
	Permissions *model.PermissionSet
	Token       string
	// Users is a snapshot of the user table
	Users []*model.User
	// User is the user the token authenticated, or nil
	User *model.User
}

// Extension contributes extra grants during resolution. Whatever it
// returns is unioned in; it cannot remove grants.
type Extension interface {
	Name() string
	Grants(ctx context.Context, req Request) (*model.PermissionSet, error)
}

// ExtensionFunc adapts a function to the Extension interface
type ExtensionFunc struct {
	ExtensionName string
	Fn            func(ctx context.Context, req Request) (*model.PermissionSet, error)
}

func (f ExtensionFunc) Name() string { return f.ExtensionName }

func (f ExtensionFunc) Grants(ctx context.Context, req Request) (*model.PermissionSet, error) {
	return f.Fn(ctx, req)
}

// MasterAuthenticator recognises the override token
type MasterAuthenticator interface {
	IsMaster(token string) bool
}

// StaticMaster matches one configured token. An empty token never matches.
type StaticMaster struct {
	token string
}

// NewStaticMaster creates a StaticMaster for the given token
func NewStaticMaster(token string) *StaticMaster {
	return &StaticMaster{token: token}
}

// IsMaster compares in constant time
func (m *StaticMaster) IsMaster(token string) bool {
	if m == nil || m.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(m.token), []byte(token)) == 1
}

// Grant sets
var (
	BaseRead = []string{model.UserFieldName, model.UserFieldAdmin, model.UserFieldDescription}

	SelfRead  = []string{model.UserFieldEmail, model.UserFieldFactorioLinkToken}
	SelfWrite = []string{model.UserFieldPassword, model.UserFieldEmail, model.UserFieldDescription}

	AdminRead = []string{
		model.UserFieldName,
		model.UserFieldPassword,
		model.UserFieldEmail,
		model.UserFieldAdmin,
		model.UserFieldFactorioLinkToken,
		model.UserFieldDescription,
	}
	AdminWrite = []string{
		model.UserFieldPassword,
		model.UserFieldEmail,
		model.UserFieldDescription,
		model.UserFieldAdmin,
		model.UserFieldFactorioLinkToken,
	}
)

// Base returns the grants every caller gets
func Base() *model.PermissionSet {
	p := model.NewPermissionSet()
	p.All.Read.Add(BaseRead...)
	return p
}

// Admin returns full administrative grants
func Admin() *model.PermissionSet {
	p := model.NewPermissionSet()
	p.All.Read.Add(AdminRead...)
	p.All.Write.Add(AdminWrite...)
	p.Cluster.Add(model.AllClusterActions...)
	return p
}

// Engine resolves tokens to permission sets
type Engine struct {
	store  *database.Store
	master MasterAuthenticator
	clock  clock.Clock
	logger *slog.Logger

	extensions []Extension
}

// New creates a new Engine
func New(store *database.Store, master MasterAuthenticator, clock clock.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		master: master,
		clock:  clock,
		logger: logger,
	}
}

// Register adds an extension. Extensions run in registration order.
// Register is not safe to call concurrently with Resolve.
func (e *Engine) Register(ext Extension) {
	e.extensions = append(e.extensions, ext)
	e.logger.Info("permission extension registered", "extension", ext.Name())
}

// Resolve computes the grants of token. Expired sessions seen during the
// scan are removed. Grants only ever accumulate.
func (e *Engine) Resolve(ctx context.Context, token string) *model.PermissionSet {
	perms := Base()
	now := e.clock.Now()

	var authenticated *model.User
	var users []*model.User

	e.store.UpdateUsers(func(table []*model.User) []*model.User {
		for _, u := range table {
			kept := u.Sessions[:0]
			for _, session := range u.Sessions {
				if session.ExpiredAt(now) {
					e.logger.Debug("pruned expired session", "user", u.Name)
					continue
				}
				kept = append(kept, session)

				if token == "" || session.Token != token || !session.ValidAt(now) {
					continue
				}
				perms.GrantUser(u.Name, SelfRead, SelfWrite)
				if perms.Principal == "" {
					perms.Principal = u.Name
					authenticated = u.Clone()
				}
				if u.Admin {
					perms.Union(Admin())
				}
			}
			u.Sessions = kept
		}

		if len(e.extensions) > 0 {
			users = make([]*model.User, len(table))
			for i, u := range table {
				users[i] = u.Clone()
			}
		}
		return table
	})

	if e.master != nil && e.master.IsMaster(token) {
		perms.Union(Admin())
		perms.Principal = model.PrincipalMaster
	}

	for _, ext := range e.extensions {
		extra, err := ext.Grants(ctx, Request{
			Permissions: perms.Clone(),
			Token:       token,
			Users:       users,
			User:        authenticated,
		})
		if err != nil {
			e.logger.Warn("permission extension failed", "extension", ext.Name(), "error", err)
			continue
		}
		principal := perms.Principal
		perms.Union(extra)
		perms.Principal = principal
	}

	return perms
}

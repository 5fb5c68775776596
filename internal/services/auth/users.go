package auth

import (
	"context"
	"fmt"

	"github.com/mcoot/playermanager/internal/model"
)

// UserPatch holds the fields to change on a user; nil means unchanged
type UserPatch struct {
	Password          *string
	Email             *string
	Admin             *bool
	FactorioLinkToken *string
	Description       *string
}

// Fields returns the names of the fields the patch sets
func (p UserPatch) Fields() []string {
	var fields []string
	if p.Password != nil {
		fields = append(fields, model.UserFieldPassword)
	}
	if p.Email != nil {
		fields = append(fields, model.UserFieldEmail)
	}
	if p.Admin != nil {
		fields = append(fields, model.UserFieldAdmin)
	}
	if p.FactorioLinkToken != nil {
		fields = append(fields, model.UserFieldFactorioLinkToken)
	}
	if p.Description != nil {
		fields = append(fields, model.UserFieldDescription)
	}
	return fields
}

// UpdateUser applies patch to the named user. Every field in the patch
// needs a write grant; if any is missing nothing is changed.
func (s *Service) UpdateUser(ctx context.Context, perms *model.PermissionSet, name string, patch UserPatch) (*model.User, error) {
	for _, field := range patch.Fields() {
		if !perms.CanWrite(name, field) {
			return nil, fmt.Errorf("%w: cannot write %s of %s", model.ErrForbidden, field, name)
		}
	}

	var hash string
	if patch.Password != nil {
		h, err := s.hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var updated *model.User
	s.store.UpdateUsers(func(users []*model.User) []*model.User {
		for _, u := range users {
			if u.Name != name {
				continue
			}
			if patch.Password != nil {
				u.Password = hash
				// Changing the password signs out every device
				u.Sessions = []model.Session{}
			}
			if patch.Email != nil {
				u.Email = *patch.Email
			}
			if patch.Admin != nil {
				u.Admin = model.Flag(*patch.Admin)
			}
			if patch.FactorioLinkToken != nil {
				u.FactorioLinkToken = *patch.FactorioLinkToken
			}
			if patch.Description != nil {
				u.Description = *patch.Description
			}
			updated = u.Clone()
			break
		}
		return users
	})
	if updated == nil {
		return nil, model.ErrUserNotFound
	}

	s.logger.Info("user updated", "user", name, "by", perms.Principal, "fields", patch.Fields())
	return updated, nil
}

// View returns the fields of u that perms may read
func View(perms *model.PermissionSet, u *model.User) map[string]any {
	out := make(map[string]any)
	if perms.CanRead(u.Name, model.UserFieldName) {
		out[model.UserFieldName] = u.Name
	}
	if perms.CanRead(u.Name, model.UserFieldPassword) {
		out[model.UserFieldPassword] = u.Password
	}
	if perms.CanRead(u.Name, model.UserFieldEmail) {
		out[model.UserFieldEmail] = u.Email
	}
	if perms.CanRead(u.Name, model.UserFieldAdmin) {
		out[model.UserFieldAdmin] = bool(u.Admin)
	}
	if perms.CanRead(u.Name, model.UserFieldFactorioLinkToken) {
		out[model.UserFieldFactorioLinkToken] = u.FactorioLinkToken
	}
	if perms.CanRead(u.Name, model.UserFieldDescription) {
		out[model.UserFieldDescription] = u.Description
	}
	return out
}

// ListUsers returns every user filtered through View
func (s *Service) ListUsers(perms *model.PermissionSet) []map[string]any {
	users := s.store.Users()
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, View(perms, u))
	}
	return out
}

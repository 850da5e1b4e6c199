package clinicapi

import (
	"context"

	"github.com/wolfman30/clinicdesk/internal/session"
)

// UserInput is the create/update payload for a staff account.
type UserInput struct {
	ID       ID       `json:"-"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// ListUsers returns staff accounts.
func (s *Service) ListUsers(ctx context.Context, opts ListOptions) ([]session.User, error) {
	return listResource[session.User](ctx, s.gw, "/users", opts.values())
}

// CreateUser creates a staff account.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (session.User, error) {
	return createResource[session.User](ctx, s.gw, "/users", in)
}

// UpdateUser changes a staff account.
func (s *Service) UpdateUser(ctx context.Context, in UserInput) (session.User, error) {
	path, err := itemPath("/users", in.ID)
	if err != nil {
		return session.User{}, err
	}
	return updateResource[session.User](ctx, s.gw, path, in)
}

// DeleteUser removes a staff account.
func (s *Service) DeleteUser(ctx context.Context, id ID) error {
	path, err := itemPath("/users", id)
	if err != nil {
		return err
	}
	return s.gw.Delete(ctx, path)
}

// ListRoles returns roles with their permissions.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return listResource[Role](ctx, s.gw, "/roles", nil)
}

// CreateRole adds a role.
func (s *Service) CreateRole(ctx context.Context, name string) (Role, error) {
	return createResource[Role](ctx, s.gw, "/roles", map[string]string{"name": name})
}

// ListPermissions returns every permission the backend knows.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return listResource[Permission](ctx, s.gw, "/permissions", nil)
}

// AssignPermissions replaces a role's permission set.
func (s *Service) AssignPermissions(ctx context.Context, roleID ID, permissions []string) (Role, error) {
	path, err := itemPath("/roles", roleID)
	if err != nil {
		return Role{}, err
	}
	if permissions == nil {
		permissions = []string{}
	}
	return createResource[Role](ctx, s.gw, path+"/permissions", map[string][]string{"permissions": permissions})
}

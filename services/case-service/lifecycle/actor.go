package lifecycle

import "cybercrime-portal/pkg/catalog"

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID          string
	Role        catalog.UserRole
	Permissions catalog.PermissionSet
	IPAddress   string
}

// NewActor builds an actor whose permissions come from the role table.
func NewActor(id string, role catalog.UserRole, ip string) Actor {
	return Actor{ID: id, Role: role, Permissions: role.Permissions(), IPAddress: ip}
}

func (a Actor) can(perms ...catalog.Permission) bool {
	return a.Permissions.HasAny(perms...)
}

func (a Actor) require(perm catalog.Permission) error {
	if !a.Permissions.Has(perm) {
		return &AuthorizationError{Permission: perm}
	}
	return nil
}

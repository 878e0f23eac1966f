package access

import "github.com/apolzek/neosearch/internal/models"

// Identity is the resolved requester: a user id or anonymous. Credential
// verification happens upstream; a failed or expired credential resolves to
// anonymous and never reaches this package as an error.
type Identity struct {
	UserID string
}

// Anonymous is the unauthenticated requester.
func Anonymous() Identity {
	return Identity{}
}

// User returns the identity of an authenticated user.
func User(id string) Identity {
	return Identity{UserID: id}
}

// IsAnonymous reports whether the requester carries no identity.
func (id Identity) IsAnonymous() bool {
	return id.UserID == ""
}

// Visible reports whether the requester is permitted to see the registry.
// Anonymous requesters see active public records; an owner sees every active
// record of their own regardless of the public flag. Pure predicate, O(1).
func Visible(requester Identity, reg models.Registry) bool {
	if !reg.Active() {
		return false
	}
	if reg.Public {
		return true
	}
	return !requester.IsAnonymous() && requester.UserID == reg.OwnerID
}

// Filter returns the subset of candidates visible to the requester.
func Filter(requester Identity, candidates []models.Registry) []models.Registry {
	visible := make([]models.Registry, 0, len(candidates))
	for _, reg := range candidates {
		if Visible(requester, reg) {
			visible = append(visible, reg)
		}
	}
	return visible
}

package domain

import (
	"slices"
	"time"
)

// RoleOrganizer grants the organizer-only operations (draws, replacements, bulk cancel, cancellations).
const RoleOrganizer = "organizer"

// Identity is the caller behind a verified bearer token. EntrantID is the opaque entrant identifier.
type Identity struct {
	EntrantID string
	Roles     []string
}

// HasRole reports whether the identity carries role.
func (i *Identity) HasRole(role string) bool {
	return i != nil && slices.Contains(i.Roles, role)
}

// TokenVerifier validates a bearer token and returns the identity it was issued for.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(entrantID string, roles []string, expiry time.Duration) (string, error)
}

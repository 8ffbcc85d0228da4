// Package identity models the caller of cart operations: either a logged-in
// user or an anonymous session. Exactly one of the two is set.
package identity

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is a tagged variant over user and session ownership. The zero
// value is invalid; use ForUser or ForSession.
type Identity struct {
	userID    uuid.UUID
	sessionID string
}

// ForUser builds an identity for an authenticated user.
func ForUser(userID uuid.UUID) (Identity, error) {
	if userID == uuid.Nil {
		return Identity{}, fmt.Errorf("user id is required")
	}
	return Identity{userID: userID}, nil
}

// ForSession builds an identity for an anonymous session.
func ForSession(sessionID string) (Identity, error) {
	if sessionID == "" {
		return Identity{}, fmt.Errorf("session id is required")
	}
	return Identity{sessionID: sessionID}, nil
}

// IsUser reports whether the identity belongs to an authenticated user.
func (i Identity) IsUser() bool {
	return i.userID != uuid.Nil
}

// IsSession reports whether the identity belongs to an anonymous session.
func (i Identity) IsSession() bool {
	return i.userID == uuid.Nil && i.sessionID != ""
}

// IsZero reports whether neither owner is set.
func (i Identity) IsZero() bool {
	return i.userID == uuid.Nil && i.sessionID == ""
}

// UserID returns the user owner when present.
func (i Identity) UserID() (uuid.UUID, bool) {
	if i.userID == uuid.Nil {
		return uuid.Nil, false
	}
	return i.userID, true
}

// SessionID returns the session owner when present.
func (i Identity) SessionID() (string, bool) {
	if !i.IsSession() {
		return "", false
	}
	return i.sessionID, true
}

// String renders the identity for log fields.
func (i Identity) String() string {
	switch {
	case i.IsUser():
		return "user:" + i.userID.String()
	case i.IsSession():
		return "session:" + i.sessionID
	default:
		return "anonymous"
	}
}

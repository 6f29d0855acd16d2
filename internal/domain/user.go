// Package domain contains entities without logic beyond their own invariants.
package domain

import "errors"

const MaxUsernameLen = 36

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrExternalIDEmpty = errors.New("external id empty")
)

// User binds the display name chosen at join time to the stable identifier
// supplied by the identity provider. Both values are trusted as given.
type User struct {
	Username   string `json:"username"`
	ExternalID string `json:"externalId"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username, externalID string) (*User, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	if len(externalID) == 0 {
		return nil, ErrExternalIDEmpty
	}
	return &User{Username: username, ExternalID: externalID}, nil
}

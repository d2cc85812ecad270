// Package session owns the connection lifecycle: which authentication mode
// is active, the credentials behind it, and the actor identity attached to
// audit-relevant writes. At most one mode is connected at a time and every
// state change is written through to the store, so a restart rebuilds the
// exact same session.
package session

import (
	"strings"
	"time"
)

// Mode is the active authentication mode. The empty string means
// disconnected.
type Mode string

const (
	ModeNone  Mode = ""
	ModeToken Mode = "token"
	ModeApp   Mode = "app"
)

// TokenCredentials connect with a personal access token.
type TokenCredentials struct {
	PersonalToken string
	Organization  string
}

// AppCredentials connect as a GitHub App installed on an organization.
// InstallationID may be zero, in which case it is resolved against the
// App's installation list on connect.
type AppCredentials struct {
	AppID         string
	PrivateKeyPEM string
	Organization  string
	InstallationID int64
}

// Snapshot is a read-only view of the session for status reporting. It
// never carries secrets.
type Snapshot struct {
	Mode                Mode      `json:"mode"`
	Organization        string    `json:"organization,omitempty"`
	DisplayName         string    `json:"display_name,omitempty"`
	AppID               string    `json:"app_id,omitempty"`
	InstallationID      int64     `json:"installation_id,omitempty"`
	TokenExpiresAt      time.Time `json:"token_expires_at,omitzero"`
	ActorIdentity       string    `json:"actor_identity,omitempty"`
	NeedsUserIdentity   bool      `json:"needs_user_identity"`
	DeviceFlowAvailable bool      `json:"device_flow_available"`
}

// Connected reports whether any mode is active.
func (s Snapshot) Connected() bool {
	return s.Mode != ModeNone
}

const placeholderPrefix = "app/"

// placeholderIdentity builds the synthetic actor recorded before a human
// identity is known in app mode. The slash keeps it syntactically
// distinguishable from any GitHub username.
func placeholderIdentity(appID string) string {
	return placeholderPrefix + appID
}

// IsPlaceholder reports whether identity is a synthetic app actor rather
// than a resolved user login.
func IsPlaceholder(identity string) bool {
	return strings.HasPrefix(identity, placeholderPrefix)
}

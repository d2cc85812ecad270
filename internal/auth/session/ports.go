package session

import (
	"context"
	"time"

	"repocomply/internal/auth/deviceflow"
	"repocomply/internal/github"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// API is the slice of the GitHub client the session service depends on.
type API interface {
	Organization(ctx context.Context, token, org string) (*github.Organization, error)
	User(ctx context.Context, token, username string) (*github.User, error)
	App(ctx context.Context, appJWT string) (*github.App, error)
}

// TokenSource supplies installation access tokens for app mode. It is
// configured once per connection and owns caching and refresh.
type TokenSource interface {
	Configure(appID, privateKeyPEM, organization string, installationID int64)
	Reset()
	EnsureFresh(ctx context.Context) (string, error)
	InstallationID() int64
	TokenExpiry() time.Time
}

// Minter signs short-lived App JWTs. The session service only needs it for
// the OAuth client id probe; token exchange goes through the TokenSource.
type Minter interface {
	Mint(appID, privateKeyPEM string) (string, error)
}

// DeviceFlow is the device authorization orchestrator as the session sees
// it: start, inspect, cancel.
type DeviceFlow interface {
	Start(ctx context.Context, clientID string, onIdentified deviceflow.IdentifiedFunc) (deviceflow.Prompt, error)
	Status() deviceflow.Status
	Cancel()
}

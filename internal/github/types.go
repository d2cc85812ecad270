package github

import "time"

// Organization is the subset of the org profile used for credential probes
// and display names.
type Organization struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

// User carries the canonical login of a GitHub account.
type User struct {
	Login string `json:"login"`
}

// App is the authenticated App's own metadata. ClientID may be empty for
// Apps created before client IDs were issued.
type App struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	ClientID string `json:"client_id"`
}

// Installation binds an App to an account.
type Installation struct {
	ID         int64               `json:"id"`
	Account    InstallationAccount `json:"account"`
	TargetType string              `json:"target_type"`
}

type InstallationAccount struct {
	Login string `json:"login"`
}

// InstallationToken is a short-lived bearer credential scoped to one
// installation (roughly one hour of validity, declared by the server).
type InstallationToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DeviceCode is the authorization server's answer to a device code request.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// DeviceToken is one poll outcome. Exactly one of AccessToken or Error is
// populated; Error uses the RFC 8628 names (authorization_pending,
// slow_down, expired_token, access_denied).
type DeviceToken struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

package session

// Storage keys for the persisted session. Values are strings; numeric
// fields are stored in base-10.
const (
	keyMode           = "mode"
	keyOrganization   = "org"
	keyDisplayName    = "display_name"
	keyPersonalToken  = "personal_token"
	keyAppID          = "app_id"
	keyPrivateKey     = "private_key"
	keyInstallationID = "installation_id"
	keyOAuthClientID  = "oauth_client_id"
	keyActorIdentity  = "actor_identity"
)

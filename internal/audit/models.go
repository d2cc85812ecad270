package audit

import "time"

// Event records one auditable action with the identity it is attributed
// to. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    Action    `json:"action"`
	Target    string    `json:"target,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

type Action string

const (
	ActionSessionConnected    Action = "session_connected"
	ActionSessionDisconnected Action = "session_disconnected"
	ActionIdentitySet         Action = "identity_set"
	ActionIdentityCleared     Action = "identity_cleared"
	ActionTokenRefused        Action = "token_refused"
)

package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"repocomply/internal/auth/deviceflow"
	"repocomply/internal/auth/session"
	dErrors "repocomply/pkg/domain-errors"
	"repocomply/pkg/validation"
)

// SessionService is the session lifecycle as the transport layer sees it.
type SessionService interface {
	ConnectWithToken(ctx context.Context, creds session.TokenCredentials) (session.Snapshot, error)
	ConnectWithApp(ctx context.Context, creds session.AppCredentials) (session.Snapshot, error)
	Disconnect(ctx context.Context) error
	Token(ctx context.Context) (string, error)
	Snapshot() session.Snapshot
	SetManualLogin(ctx context.Context, username string) error
	ClearIdentity(ctx context.Context) error
	StartDeviceFlow(ctx context.Context) (deviceflow.Prompt, error)
	CancelDeviceFlow()
	DeviceFlowStatus() deviceflow.Status
}

type Handler struct {
	sessions SessionService
	trail    AuditTrail
	logger   *slog.Logger
}

func NewHandler(sessions SessionService, trail AuditTrail, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, trail: trail, logger: logger}
}

func (h *Handler) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

type connectTokenRequest struct {
	PersonalToken string `json:"personal_token" validate:"notblank"`
	Organization  string `json:"organization" validate:"notblank"`
}

func (h *Handler) handleConnectToken(w http.ResponseWriter, r *http.Request) {
	var req connectTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := validation.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	snap, err := h.sessions.ConnectWithToken(r.Context(), session.TokenCredentials{
		PersonalToken: req.PersonalToken,
		Organization:  req.Organization,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session connected over http",
		"mode", snap.Mode,
		"device", clientDevice(r.UserAgent()),
	)
	writeJSON(w, http.StatusOK, snap)
}

type connectAppRequest struct {
	AppID          string `json:"app_id" validate:"notblank,number"`
	PrivateKey     string `json:"private_key" validate:"notblank"`
	Organization   string `json:"organization" validate:"notblank"`
	InstallationID int64  `json:"installation_id,omitempty"`
}

func (h *Handler) handleConnectApp(w http.ResponseWriter, r *http.Request) {
	var req connectAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := validation.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	snap, err := h.sessions.ConnectWithApp(r.Context(), session.AppCredentials{
		AppID:          req.AppID,
		PrivateKeyPEM:  req.PrivateKey,
		Organization:   req.Organization,
		InstallationID: req.InstallationID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session connected over http",
		"mode", snap.Mode,
		"device", clientDevice(r.UserAgent()),
	)
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Disconnect(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAccessToken hands the frontend a credential usable against the
// GitHub API right now. In app mode this may trigger a refresh.
func (h *Handler) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.sessions.Token(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

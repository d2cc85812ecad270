package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "repocomply/pkg/domain-errors"
	"repocomply/pkg/validation"
)

// GitHub logins are at most 39 characters.
type manualIdentityRequest struct {
	Username string `json:"username" validate:"notblank,max=39"`
}

func (h *Handler) handleManualIdentity(w http.ResponseWriter, r *http.Request) {
	var req manualIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := validation.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessions.SetManualLogin(r.Context(), req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

func (h *Handler) handleClearIdentity(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ClearIdentity(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

func (h *Handler) handleStartDeviceFlow(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.sessions.StartDeviceFlow(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, prompt)
}

func (h *Handler) handleDeviceFlowStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.DeviceFlowStatus())
}

func (h *Handler) handleCancelDeviceFlow(w http.ResponseWriter, r *http.Request) {
	h.sessions.CancelDeviceFlow()
	w.WriteHeader(http.StatusNoContent)
}

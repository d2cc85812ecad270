package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"repocomply/internal/audit"
)

const defaultAuditLimit = 50

// AuditTrail is the read side of the audit log.
type AuditTrail interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

func (h *Handler) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := h.trail.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	dErrors "repocomply/pkg/domain-errors"
)

// writeJSON is the single JSON encoding path for the transport layer.
func writeJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// best-effort fallback; don't override status for the caller
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError centralizes domain error translation to HTTP responses.
// Domain errors map by code; anything unrecognized is an opaque 500 so
// internals never leak to the browser.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": string(dErrors.CodeInternal),
		})
		return
	}

	if domainErr.Code == dErrors.CodeRateLimited && !domainErr.ResetAt.IsZero() {
		retryAfter := time.Until(domainErr.ResetAt).Seconds()
		if retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter)))
		}
	}

	response := map[string]string{
		"error": string(domainErr.Code),
	}
	if domainErr.Message != "" {
		response["error_description"] = domainErr.Message
	}
	writeJSON(w, codeToStatus(domainErr), response)
}

// codeToStatus translates the domain taxonomy to HTTP statuses. Upstream
// GitHub failures surface as 502 no matter what status GitHub returned;
// the browser is talking to this service, not to GitHub.
func codeToStatus(err *dErrors.Error) int {
	switch err.Code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeCrypto:
		return http.StatusBadRequest
	case dErrors.CodeAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

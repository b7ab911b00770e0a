package handlers

import (
	"errors"
	"net/http"

	"github.com/carebridge/ecw-bridge/internal/compliance"
	"github.com/carebridge/ecw-bridge/internal/credentials"
)

// AddCredentials handles POST /add-credentials: validate the submitted
// session material, prove it against the EMR, and persist it either way.
func (h *Handler) AddCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentials.AddCredentialsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	cred, err := h.creds.Add(r.Context(), &req)
	if err != nil {
		if errors.Is(err, credentials.ErrAuthorizationFailed) && cred != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"id":     cred.ID,
				"status": cred.Status,
				"error":  map[string]any{"message": "EMR rejected the session tokens"},
			})
			return
		}
		h.logger.Error("failed to add credentials", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "failed to store credentials")
		return
	}

	h.recordChartWrite(r.Context(), compliance.EventCredentialRegistered, cred.ID, "", "", nil)

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     cred.ID,
		"label":  cred.Label,
		"status": cred.Status,
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/carebridge/ecw-bridge/internal/credentials"
	"github.com/carebridge/ecw-bridge/internal/ecw"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"message": message}})
}

// writeUpstreamError maps client errors to the bridge's JSON envelope.
// Upstream 4xx keeps its status and parsed detail; upstream 5xx arrives
// already translated to 501; name-resolution misses become 404s. An
// upstream 401/403 also marks the request's credential failed so later
// callers stop replaying a dead session.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *ecw.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden {
			h.failCredential(r)
		}
		writeJSON(w, apiErr.Status, map[string]any{"error": map[string]any{
			"message": apiErr.Error(),
			"detail":  apiErr.Detail,
		}})
		return
	}

	var intErr *ecw.IntegrationError
	if errors.As(err, &intErr) {
		writeJSON(w, intErr.Status, map[string]any{"error": map[string]any{
			"integration": intErr.Integration,
			"message":     intErr.Message,
			"code":        intErr.Code,
		}})
		return
	}

	switch {
	case errors.Is(err, ecw.ErrPatientNotFound),
		errors.Is(err, ecw.ErrFacilityNotFound),
		errors.Is(err, ecw.ErrProviderNotFound),
		errors.Is(err, ecw.ErrResourceNotFound),
		errors.Is(err, ecw.ErrReasonNotFound),
		errors.Is(err, ecw.ErrVisitTypeNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("upstream call failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "upstream call failed")
	}
}

// failCredential demotes the request's credential after the EMR rejected
// its session. Best effort; the rejection itself is already on its way out.
func (h *Handler) failCredential(r *http.Request) {
	if h.creds == nil {
		return
	}
	credentialID := r.Header.Get(credentials.HeaderCredentialID)
	if credentialID == "" {
		return
	}
	if err := h.creds.MarkFailed(r.Context(), credentialID); err != nil {
		h.logger.Warn("failed to mark credential failed", "credential_id", credentialID, "error", err)
	}
}

// decodeAndValidate decodes a JSON body and runs struct validation. It
// writes the error response itself and reports whether to proceed.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": map[string]any{
				"message":        "validation failed",
				"invalid_fields": fields,
			}})
			return false
		}
		writeErrorMessage(w, http.StatusUnprocessableEntity, "validation failed")
		return false
	}
	return true
}

// clientOr500 resolves the per-request upstream client or answers 500; the
// credential middleware should have made this impossible.
func (h *Handler) clientOr500(w http.ResponseWriter, r *http.Request) (ECWClient, bool) {
	c, ok := h.client(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusInternalServerError, "no upstream session available")
	}
	return c, ok
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/carebridge/ecw-bridge/internal/ecw"
)

// GetPatients handles GET /get-patients: active-patient search by last name,
// optionally narrowed by first name.
func (h *Handler) GetPatients(w http.ResponseWriter, r *http.Request) {
	lastName := r.URL.Query().Get("last_name")
	if lastName == "" {
		writeErrorMessage(w, http.StatusBadRequest, "last_name query parameter is required")
		return
	}

	req := ecw.GetPatientsRequest{
		LastName:  lastName,
		FirstName: r.URL.Query().Get("first_name"),
	}
	if mc := r.URL.Query().Get("max_count"); mc != "" {
		if n, err := strconv.Atoi(mc); err == nil && n > 0 {
			req.MaxCount = n
		}
	}

	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	res, err := client.SearchPatients(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ProgressNotes handles GET /progress_notes.
func (h *Handler) ProgressNotes(w http.ResponseWriter, r *http.Request) {
	encounterID := r.URL.Query().Get("encounter_id")
	if encounterID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "encounter_id query parameter is required")
		return
	}

	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	note, err := client.GetProgressNotes(r.Context(), encounterID)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

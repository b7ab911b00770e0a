package handlers

import (
	"net/http"
	"strconv"

	"github.com/carebridge/ecw-bridge/internal/compliance"
	"github.com/carebridge/ecw-bridge/internal/credentials"
	"github.com/carebridge/ecw-bridge/internal/ecw"
)

// GetAppointments handles GET /get-appointments.
func (h *Handler) GetAppointments(w http.ResponseWriter, r *http.Request) {
	providerID := r.URL.Query().Get("provider_id")
	if providerID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "provider_id query parameter is required")
		return
	}

	req := ecw.GetAppointmentsRequest{
		Date:       r.URL.Query().Get("date"),
		ProviderID: providerID,
		FacilityID: r.URL.Query().Get("facility_id"),
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
	res, err := client.GetAppointments(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateAppointment handles POST /create-appointment.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	h.saveAppointment(w, r, false)
}

// UpdateAppointment handles POST /update-appointment. It is the same write
// as create, targeted at an existing encounter.
func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	h.saveAppointment(w, r, true)
}

func (h *Handler) saveAppointment(w http.ResponseWriter, r *http.Request, update bool) {
	var req ecw.AppointmentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if update && req.EncounterID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "encounter_id is required for updates")
		return
	}
	if !update {
		req.EncounterID = ""
	}

	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	res, err := client.SaveAppointment(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}

	eventType := compliance.EventAppointmentCreated
	if update {
		eventType = compliance.EventAppointmentUpdated
	}
	h.recordChartWrite(r.Context(), eventType,
		r.Header.Get(credentials.HeaderCredentialID), "", req.EncounterID, nil)

	writeJSON(w, http.StatusOK, res)
}

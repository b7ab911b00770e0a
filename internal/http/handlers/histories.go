package handlers

import (
	"net/http"

	"github.com/carebridge/ecw-bridge/internal/compliance"
	"github.com/carebridge/ecw-bridge/internal/credentials"
	"github.com/carebridge/ecw-bridge/internal/ecw"
)

// AddSurgHospItems handles POST /add-surg-hosp-items.
func (h *Handler) AddSurgHospItems(w http.ResponseWriter, r *http.Request) {
	var req ecw.AddSurgHospItemsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	res, err := client.AddSurgicalHospitalizationItems(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}

	h.recordChartWrite(r.Context(), compliance.EventSurgHospHistoryAdded,
		r.Header.Get(credentials.HeaderCredentialID), req.PatientID, req.EncounterID,
		map[string]int{
			"surgical_items":        len(req.SurgicalItems),
			"hospitalization_items": len(req.HospitalizationItems),
		})

	writeJSON(w, http.StatusOK, res)
}

// AddFamilyHistoryNotes handles POST /add-family-history-notes.
func (h *Handler) AddFamilyHistoryNotes(w http.ResponseWriter, r *http.Request) {
	var req ecw.AddFamilyHistoryNoteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	res, err := client.AddFamilyHistoryNote(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}

	h.recordChartWrite(r.Context(), compliance.EventFamilyHistorySaved,
		r.Header.Get(credentials.HeaderCredentialID), req.PatientID, req.EncounterID, nil)

	writeJSON(w, http.StatusOK, res)
}

// AddSocialHistoryNotes handles POST /add-social-history-notes.
func (h *Handler) AddSocialHistoryNotes(w http.ResponseWriter, r *http.Request) {
	var req ecw.AddSocialHistoryNoteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	res, err := client.AddSocialHistoryNote(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}

	h.recordChartWrite(r.Context(), compliance.EventSocialHistorySaved,
		r.Header.Get(credentials.HeaderCredentialID), req.PatientID, req.EncounterID, nil)

	writeJSON(w, http.StatusOK, res)
}

// AddMedHxAllergies handles POST /add-med-hx-allergies.
func (h *Handler) AddMedHxAllergies(w http.ResponseWriter, r *http.Request) {
	var req ecw.UpdateMedHxAllergiesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	res, err := client.UpdateMedHxAllergies(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}

	h.recordChartWrite(r.Context(), compliance.EventMedHxAllergiesUpdated,
		r.Header.Get(credentials.HeaderCredentialID), req.PatientID, req.EncounterID,
		map[string]int{"new_allergies": len(req.NewAllergies)})

	writeJSON(w, http.StatusOK, res)
}

package handlers

import "net/http"

// Allergies handles GET /allergies: a quick search of the allergy drug
// catalog by searchText, optionally limited.
func (h *Handler) Allergies(w http.ResponseWriter, r *http.Request) {
	searchText := r.URL.Query().Get("searchText")
	if searchText == "" {
		writeErrorMessage(w, http.StatusBadRequest, "searchText query parameter is required")
		return
	}

	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	res, err := client.SearchAllergies(r.Context(), searchText, r.URL.Query().Get("limit"))
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

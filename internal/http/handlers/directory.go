package handlers

import (
	"net/http"
	"strconv"

	"github.com/carebridge/ecw-bridge/internal/ecw"
)

// Facilities handles GET /facilities.
func (h *Handler) Facilities(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	res, err := client.GetFacilities(r.Context())
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Providers handles GET /providers. With a name query param it looks one
// provider up; otherwise it lists the given page (default 1).
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}

	if name := r.URL.Query().Get("name"); name != "" {
		res, err := client.GetProviderByName(r.Context(), name)
		if err != nil {
			h.writeUpstreamError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	res, err := client.GetProviders(r.Context(), page)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reasons handles GET /reasons.
func (h *Handler) Reasons(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clientOr500(w, r)
	if !ok {
		return
	}
	res, err := client.GetReasons(r.Context())
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// VisitTypes handles GET /visit-types; the catalog is static, no upstream
// call involved.
func (h *Handler) VisitTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"visit_types": ecw.VisitTypes()})
}

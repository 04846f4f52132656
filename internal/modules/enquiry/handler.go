package enquiry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler exposes enquiry HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/enquiries", h.submit)
}

// RegisterAdminRoutes mounts the dashboard endpoints on an already guarded router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/enquiries", func(r chi.Router) {
		r.Get("/", h.list)         // ?status=new&q=acme
		r.Get("/counts", h.counts) // per-status totals
		r.Get("/export", h.export) // same filters as list
		r.Get("/{id}", h.get)
		r.Patch("/{id}/status", h.updateStatus)
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	e, err := h.service.Submit(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, e)
}

func filterFrom(r *http.Request) Filter {
	q := r.URL.Query()
	f := Filter{Search: q.Get("q")}
	if s := q.Get("status"); s != "" && s != "all" {
		f.Status = Status(s)
	}
	return f
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	enquiries, err := h.service.List(r.Context(), filterFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, enquiries)
}

func (h *Handler) counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CountByStatus(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, counts)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, e)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	e, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, e)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf, filterFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="enquiries-%s.csv"`, time.Now().Format("2006-01-02")))
	w.Write(buf.Bytes())
}

func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrInvalidStatus):
		code = http.StatusBadRequest
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

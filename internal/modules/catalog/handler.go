package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the public storefront endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/categories", h.listCategories)
		r.Get("/products", h.listProducts)       // ?category=&q=&sort=&page=
		r.Get("/products/all", h.listProductSet) // ?category_ids=a,b
		r.Get("/products/{id}", h.getProduct)
	})
}

// RegisterAdminRoutes mounts the dashboard endpoints. r is expected to be guarded already.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.adminListProducts)
		r.Post("/", h.createProduct)
		r.Get("/export", h.exportProducts)
		r.Post("/import", h.importProducts)
		r.Patch("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.adminListCategories)
		r.Post("/", h.createCategory)
		r.Patch("/{id}", h.updateCategory)
	})
}

// productView adds the display-ordered images to a product.
type productView struct {
	*Product
	Images []DisplayImage `json:"images"`
}

func viewsOf(products []*Product) []productView {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{Product: p, Images: SelectDisplayOrder(p.Variants)})
	}
	return views
}

type pageResponse struct {
	Products   []productView `json:"products"`
	Page       int           `json:"page"`
	TotalCount int           `json:"total_count"`
	TotalPages int           `json:"total_pages"`
	HasMore    bool          `json:"has_more"`
	Message    string        `json:"message,omitempty"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, categories)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := 0
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "page must be an integer"})
			return
		}
		page = n
	}
	state := QueryState{
		CategoryID:  q.Get("category"),
		SearchQuery: q.Get("q"),
		SortBy:      ParseSortOption(q.Get("sort")),
		Page:        page,
	}

	result, err := h.service.ListProducts(r.Context(), state)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := pageResponse{
		Products:   viewsOf(result.Products),
		Page:       result.Page,
		TotalCount: result.TotalCount,
		TotalPages: result.TotalPages,
		HasMore:    result.HasMore,
	}
	if len(result.Products) == 0 {
		resp.Message = EmptyMessage(state.SearchQuery)
	}
	respond(w, http.StatusOK, resp)
}

// EmptyMessage is shown when a catalog query succeeds with no rows.
func EmptyMessage(search string) string {
	if term := strings.TrimSpace(search); term != "" {
		return fmt.Sprintf("no products match '%s'", term)
	}
	return "no products found"
}

func (h *Handler) listProductSet(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("category_ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	products, err := h.service.ProductsByCategories(r.Context(), ids)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, viewsOf(products))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	if !p.IsActive {
		respond(w, http.StatusNotFound, map[string]string{"error": ErrNotFound.Error()})
		return
	}
	respond(w, http.StatusOK, productView{Product: p, Images: SelectDisplayOrder(p.Variants)})
}

func (h *Handler) adminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListAllProducts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var patch ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportProducts(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportProducts(r.Context(), &buf); err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="products-%s.csv"`, time.Now().Format("2006-01-02")))
	w.Write(buf.Bytes())
}

func (h *Handler) importProducts(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "file field is required"})
			return
		}
		defer file.Close()
		body = file
	}
	result, err := h.service.ImportProducts(r.Context(), body)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, result)
}

func (h *Handler) adminListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListAllCategories(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, categories)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, c)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var patch CategoryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrInvalidPage), errors.Is(err, ErrInvalidProduct),
		errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrInvalidCSV):
		code = http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		code = http.StatusConflict
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

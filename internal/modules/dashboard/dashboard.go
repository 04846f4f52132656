package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/georgemunganga/clockhouse-backend/internal/modules/enquiry"
	"github.com/go-chi/chi/v5"
)

// Summary is the overview shown on the dashboard home page.
type Summary struct {
	Products          int                    `json:"products"`
	ActiveProducts    int                    `json:"active_products"`
	Categories        int                    `json:"categories"`
	Enquiries         int                    `json:"enquiries"`
	EnquiriesByStatus map[enquiry.Status]int `json:"enquiries_by_status"`
	Banners           int                    `json:"banners"`
	ActiveBanners     int                    `json:"active_banners"`
}

// Repository counts rows across the catalog tables.
type Repository interface {
	Totals(ctx context.Context) (*Summary, error)
}

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Totals(ctx context.Context) (*Summary, error) {
	s := &Summary{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM products),
		  (SELECT COUNT(*) FROM products WHERE is_active = true),
		  (SELECT COUNT(*) FROM categories),
		  (SELECT COUNT(*) FROM enquiries),
		  (SELECT COUNT(*) FROM banners),
		  (SELECT COUNT(*) FROM banners WHERE is_active = true)`).
		Scan(&s.Products, &s.ActiveProducts, &s.Categories, &s.Enquiries, &s.Banners, &s.ActiveBanners)
	if err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}
	return s, nil
}

// Service assembles the dashboard summary.
type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type service struct {
	repo      Repository
	enquiries enquiry.Service
}

func NewService(repo Repository, enquiries enquiry.Service) Service {
	return &service{repo: repo, enquiries: enquiries}
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	sum, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	if sum.EnquiriesByStatus, err = s.enquiries.CountByStatus(ctx); err != nil {
		return nil, fmt.Errorf("dashboard enquiry counts: %w", err)
	}
	return sum, nil
}

// Handler exposes the dashboard summary.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/dashboard", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(sum)
}

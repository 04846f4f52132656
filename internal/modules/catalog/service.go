package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Service defines catalog business logic for the storefront and the admin dashboard.
type Service interface {
	// Categories returns the storefront categories ordered by name.
	Categories(ctx context.Context) ([]Category, error)

	// ListProducts returns one filtered, sorted page of active products.
	ListProducts(ctx context.Context, state QueryState) (*Page, error)

	// ProductsByCategories returns every active product in the given categories
	// (all categories when empty), ordered by model number. Results are cached
	// per category set until the next product write.
	ProductsByCategories(ctx context.Context, categoryIDs []string) ([]*Product, error)

	GetProduct(ctx context.Context, id string) (*Product, error)

	ListAllProducts(ctx context.Context) ([]*Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ImportProducts(ctx context.Context, r io.Reader) (*ImportResult, error)
	ExportProducts(ctx context.Context, w io.Writer) error

	ListAllCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*Category, error)
	UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error)
}

type service struct {
	repo       Repository
	categories *CategoryProvider
	sets       ProductSetCache
	logger     *slog.Logger
	flight     singleflight.Group

	// setsMu orders cache fills against invalidation: a fill started before
	// an invalidation sees a newer setsGen and does not write.
	setsMu  sync.RWMutex
	setsGen uint64
}

func NewService(repo Repository, categories *CategoryProvider, sets ProductSetCache, logger *slog.Logger) Service {
	return &service{repo: repo, categories: categories, sets: sets, logger: logger}
}

func (s *service) Categories(ctx context.Context) ([]Category, error) {
	return s.categories.Load(ctx)
}

func (s *service) ListProducts(ctx context.Context, state QueryState) (*Page, error) {
	q, err := BuildQuery(state)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	products, count, err := s.repo.QueryProducts(ctx, q)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	queryDuration.WithLabelValues(string(ParseSortOption(string(state.SortBy))), outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &Page{
		Products:   products,
		Page:       state.Page,
		TotalCount: count,
		TotalPages: TotalPages(count),
		HasMore:    HasMore(len(products), state.Page, count),
	}, nil
}

func (s *service) ProductsByCategories(ctx context.Context, categoryIDs []string) ([]*Product, error) {
	key := ProductSetKey(categoryIDs)

	cached, ok, err := s.sets.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "product set cache read failed", "key", key, "error", err)
	}
	if ok {
		cacheLookups.WithLabelValues("product_sets", "hit").Inc()
		return cached, nil
	}
	cacheLookups.WithLabelValues("product_sets", "miss").Inc()

	s.setsMu.RLock()
	gen := s.setsGen
	s.setsMu.RUnlock()

	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(fmt.Sprintf("%d/%s", gen, key), func() (any, error) {
		products, _, err := s.repo.QueryProducts(fillCtx, buildCategorySetQuery(categoryIDs))
		if err != nil {
			return nil, err
		}
		s.setsMu.RLock()
		defer s.setsMu.RUnlock()
		if s.setsGen != gen {
			return products, nil
		}
		if err := s.sets.Set(fillCtx, key, products); err != nil {
			s.logger.WarnContext(ctx, "product set cache write failed", "key", key, "error", err)
		}
		return products, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list products by categories: %w", err)
	}
	return v.([]*Product), nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *service) ListAllProducts(ctx context.Context) ([]*Product, error) {
	return s.repo.ListAllProducts(ctx)
}

func (s *service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	p := &Product{
		ID:          uuid.New().String(),
		ModelNumber: strings.TrimSpace(in.ModelNumber),
		MRP:         in.MRP,
		CategoryID:  in.CategoryID,
		IsActive:    true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "product created", "id", p.ID, "model_number", p.ModelNumber)
	s.invalidateProductSets(ctx)
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	p.ModelNumber = strings.TrimSpace(p.ModelNumber)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "product updated", "id", p.ID)
	s.invalidateProductSets(ctx)
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "product deleted", "id", id)
	s.invalidateProductSets(ctx)
	return nil
}

func (s *service) ListAllCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListAllCategories(ctx)
}

func (s *service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	c := &Category{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(in.Name),
		IsActive:        true,
		HideFromDisplay: in.HideFromDisplay,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "category created", "id", c.ID, "name", c.Name)
	s.categories.Invalidate()
	return c, nil
}

func (s *service) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(c)
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "category updated", "id", c.ID)
	s.categories.Invalidate()
	// Product sets embed the category.
	s.invalidateProductSets(ctx)
	return c, nil
}

func (s *service) invalidateProductSets(ctx context.Context) {
	s.setsMu.Lock()
	defer s.setsMu.Unlock()
	s.setsGen++
	if err := s.sets.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "product set cache invalidation failed", "error", err)
	}
}

var validate = validator.New()

func validateProduct(p *Product) error {
	err := validate.Struct(p)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrInvalidProduct, jsonName(fe.Field()))
	case "gte":
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidProduct, jsonName(fe.Field()))
	}
	return fmt.Errorf("%w: %s failed %s", ErrInvalidProduct, jsonName(fe.Field()), fe.Tag())
}

func jsonName(field string) string {
	switch field {
	case "ModelNumber":
		return "model_number"
	case "CategoryID":
		return "category_id"
	}
	return strings.ToLower(field)
}

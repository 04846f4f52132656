package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

var errColumnMissing = errors.New(`pq: column "hide_from_display" does not exist`)

// fakeRepo is an in-memory Repository that executes descriptors the way the
// Postgres repository does.
type fakeRepo struct {
	mu         sync.Mutex
	products   []*Product
	categories []Category

	visibleErr    error
	activeErr     error
	queryErr      error
	categoryCalls []CategoryTier
	queryCalls    int
	nextID        int
	clock         time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *fakeRepo) addCategory(name string, active, hidden bool) Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c := Category{ID: fmt.Sprintf("cat-%03d", r.nextID), Name: name, IsActive: active, HideFromDisplay: hidden}
	r.categories = append(r.categories, c)
	return c
}

func (r *fakeRepo) addProduct(model string, mrp float64, categoryID string, active bool, variants ...ProductVariant) *Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.clock = r.clock.Add(time.Minute)
	p := &Product{
		ID:          fmt.Sprintf("prod-%03d", r.nextID),
		ModelNumber: model,
		MRP:         mrp,
		CategoryID:  categoryID,
		IsActive:    active,
		Variants:    variants,
		CreatedAt:   r.clock,
		UpdatedAt:   r.clock,
	}
	r.products = append(r.products, p)
	return p
}

func (r *fakeRepo) categoryByID(id string) *Category {
	for i := range r.categories {
		if r.categories[i].ID == id {
			c := r.categories[i]
			return &c
		}
	}
	return nil
}

func (r *fakeRepo) materialise(p *Product) *Product {
	cp := *p
	cp.Variants = slices.Clone(p.Variants)
	cp.Category = r.categoryByID(p.CategoryID)
	return &cp
}

func matches(p *Product, f Filter) bool {
	switch f.Column + ":" + string(f.Op) {
	case "is_active:eq":
		return p.IsActive == f.Value.(bool)
	case "category_id:eq":
		return p.CategoryID == f.Value.(string)
	case "category_id:in":
		return slices.Contains(f.Value.([]string), p.CategoryID)
	case "model_number:contains":
		return strings.Contains(strings.ToLower(p.ModelNumber), strings.ToLower(f.Value.(string)))
	}
	panic("unsupported filter " + f.Column + " " + string(f.Op))
}

func less(a, b *Product, o Order) (lt, eq bool) {
	var c int
	switch o.Column {
	case "model_number":
		c = strings.Compare(a.ModelNumber, b.ModelNumber)
	case "mrp":
		switch {
		case a.MRP < b.MRP:
			c = -1
		case a.MRP > b.MRP:
			c = 1
		}
	case "created_at":
		c = a.CreatedAt.Compare(b.CreatedAt)
	default:
		panic("unsupported order " + o.Column)
	}
	if !o.Ascending {
		c = -c
	}
	return c < 0, c == 0
}

func (r *fakeRepo) QueryProducts(_ context.Context, q QueryDescriptor) ([]*Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryCalls++
	if r.queryErr != nil {
		return nil, 0, r.queryErr
	}

	var matched []*Product
	for _, p := range r.products {
		ok := true
		for _, f := range q.Filters {
			if !matches(p, f) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		lt, eq := less(matched[i], matched[j], q.Order)
		if eq {
			return matched[i].ID < matched[j].ID
		}
		return lt
	})

	total := len(matched)
	from := min(q.From, total)
	to := total
	if limit := q.Limit(); limit >= 0 {
		to = min(from+limit, total)
	}
	out := []*Product{}
	for _, p := range matched[from:to] {
		out = append(out, r.materialise(p))
	}
	return out, total, nil
}

func (r *fakeRepo) GetProduct(_ context.Context, id string) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ID == id {
			return r.materialise(p), nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) ListAllProducts(context.Context) ([]*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Product{}
	for i := len(r.products) - 1; i >= 0; i-- {
		out = append(out, r.materialise(r.products[i]))
	}
	return out, nil
}

func (r *fakeRepo) CreateProduct(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(p)
}

func (r *fakeRepo) insertLocked(p *Product) error {
	for _, existing := range r.products {
		if existing.ModelNumber == p.ModelNumber {
			return fmt.Errorf("%w: model_number %s", ErrDuplicate, p.ModelNumber)
		}
	}
	if r.categoryByID(p.CategoryID) == nil {
		return fmt.Errorf("%w: unknown category", ErrInvalidProduct)
	}
	r.clock = r.clock.Add(time.Minute)
	p.CreatedAt, p.UpdatedAt = r.clock, r.clock
	cp := *p
	r.products = append(r.products, &cp)
	return nil
}

func (r *fakeRepo) CreateProducts(_ context.Context, ps []*Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := slices.Clone(r.products)
	for _, p := range ps {
		if err := r.insertLocked(p); err != nil {
			r.products = saved
			return err
		}
	}
	return nil
}

func (r *fakeRepo) UpdateProduct(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.products {
		if existing.ID == p.ID {
			cp := *p
			cp.Category = nil
			r.products[i] = &cp
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) DeleteProduct(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.products {
		if p.ID == id {
			r.products = slices.Delete(r.products, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) ListCategories(_ context.Context, tier CategoryTier) ([]Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categoryCalls = append(r.categoryCalls, tier)
	if tier == TierVisible && r.visibleErr != nil {
		return nil, r.visibleErr
	}
	if tier == TierActive && r.activeErr != nil {
		return nil, r.activeErr
	}
	out := []Category{}
	for _, c := range r.categories {
		if !c.IsActive {
			continue
		}
		if tier == TierVisible && c.HideFromDisplay {
			continue
		}
		if tier == TierActive {
			c.HideFromDisplay = false
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRepo) GetCategory(_ context.Context, id string) (*Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.categoryByID(id); c != nil {
		return c, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) ListAllCategories(context.Context) ([]Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.categories)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRepo) CreateCategory(_ context.Context, c *Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = append(r.categories, *c)
	return nil
}

func (r *fakeRepo) UpdateCategory(_ context.Context, c *Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.categories {
		if r.categories[i].ID == c.ID {
			r.categories[i] = *c
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) categoryTiers() []CategoryTier {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.categoryCalls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo *fakeRepo) (Service, *MemoryProductSetCache) {
	sets := NewMemoryProductSetCache(0)
	return NewService(repo, NewCategoryProvider(repo, discardLogger()), sets, discardLogger()), sets
}

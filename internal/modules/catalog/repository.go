package catalog

import "context"

// CategoryTier selects which predicate a category listing uses.
type CategoryTier int

const (
	// TierVisible lists active categories that are not hidden from display.
	TierVisible CategoryTier = iota
	// TierActive lists every active category. Used when the hidden flag is unavailable.
	TierActive
)

func (t CategoryTier) String() string {
	if t == TierActive {
		return "active"
	}
	return "visible"
}

// CategorySource lists categories ordered by name.
type CategorySource interface {
	ListCategories(ctx context.Context, tier CategoryTier) ([]Category, error)
}

// Repository defines catalog data storage.
type Repository interface {
	CategorySource

	// QueryProducts runs a descriptor and returns the window's rows with
	// category, variants and images populated. The count is only meaningful
	// when the descriptor asks for it.
	QueryProducts(ctx context.Context, q QueryDescriptor) ([]*Product, int, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListAllProducts(ctx context.Context) ([]*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	CreateProducts(ctx context.Context, ps []*Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error

	GetCategory(ctx context.Context, id string) (*Category, error)
	ListAllCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
}

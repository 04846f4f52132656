package catalog

import (
	"time"
)

// PageSize is the fixed number of products per catalog page.
const PageSize = 12

// Category groups products on the storefront.
type Category struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	IsActive        bool   `json:"is_active"`
	HideFromDisplay bool   `json:"hide_from_display"`
}

// Visible reports whether the category belongs in storefront navigation.
func (c Category) Visible() bool { return c.IsActive && !c.HideFromDisplay }

// ProductImage is one picture attached to a variant.
type ProductImage struct {
	ImageURL  string `json:"image_url"`
	IsPrimary bool   `json:"is_primary"`
}

// ProductVariant is a colour/style of a product carrying its own images.
type ProductVariant struct {
	ID        string         `json:"id"`
	ColorName *string        `json:"color_name"`
	IsDefault bool           `json:"is_default"`
	Images    []ProductImage `json:"images"`
}

// Product is a clock model in the catalog.
type Product struct {
	ID          string           `json:"id"`
	ModelNumber string           `json:"model_number" validate:"required,max=100"`
	MRP         float64          `json:"mrp" validate:"gte=0"`
	CategoryID  string           `json:"category_id" validate:"required"`
	IsActive    bool             `json:"is_active"`
	Category    *Category        `json:"category,omitempty" validate:"-"`
	Variants    []ProductVariant `json:"variants" validate:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// SortOption selects the ordering of a catalog page.
type SortOption string

const (
	SortModelNumber SortOption = "model_number"
	SortMRPAsc      SortOption = "mrp_asc"
	SortMRPDesc     SortOption = "mrp_desc"
	SortNewest      SortOption = "created_at"
)

// ParseSortOption maps a query-string value onto a SortOption.
// Empty and unrecognised values use the model number ordering.
func ParseSortOption(s string) SortOption {
	switch SortOption(s) {
	case SortMRPAsc, SortMRPDesc, SortNewest:
		return SortOption(s)
	default:
		return SortModelNumber
	}
}

// QueryState is what a catalog view asks for.
type QueryState struct {
	CategoryID  string     `json:"category_id,omitempty"`
	SearchQuery string     `json:"search_query,omitempty"`
	SortBy      SortOption `json:"sort_by"`
	Page        int        `json:"page"`
}

// Page is one window of the catalog plus the totals needed to render pagers.
type Page struct {
	Products   []*Product `json:"products"`
	Page       int        `json:"page"`
	TotalCount int        `json:"total_count"`
	TotalPages int        `json:"total_pages"`
	HasMore    bool       `json:"has_more"`
}

// ProductInput is the admin payload for creating a product.
type ProductInput struct {
	ModelNumber string  `json:"model_number"`
	MRP         float64 `json:"mrp"`
	CategoryID  string  `json:"category_id"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ProductPatch carries the fields an admin update may change; nil means unchanged.
type ProductPatch struct {
	ModelNumber *string  `json:"model_number,omitempty"`
	MRP         *float64 `json:"mrp,omitempty"`
	CategoryID  *string  `json:"category_id,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// Apply copies the set fields of the patch onto p.
func (pp ProductPatch) Apply(p *Product) {
	if pp.ModelNumber != nil {
		p.ModelNumber = *pp.ModelNumber
	}
	if pp.MRP != nil {
		p.MRP = *pp.MRP
	}
	if pp.CategoryID != nil {
		p.CategoryID = *pp.CategoryID
	}
	if pp.IsActive != nil {
		p.IsActive = *pp.IsActive
	}
}

// CategoryInput is the admin payload for creating a category.
type CategoryInput struct {
	Name            string `json:"name"`
	IsActive        *bool  `json:"is_active,omitempty"`
	HideFromDisplay bool   `json:"hide_from_display"`
}

// CategoryPatch carries the fields an admin category update may change.
type CategoryPatch struct {
	Name            *string `json:"name,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
	HideFromDisplay *bool   `json:"hide_from_display,omitempty"`
}

// Apply copies the set fields of the patch onto c.
func (cp CategoryPatch) Apply(c *Category) {
	if cp.Name != nil {
		c.Name = *cp.Name
	}
	if cp.IsActive != nil {
		c.IsActive = *cp.IsActive
	}
	if cp.HideFromDisplay != nil {
		c.HideFromDisplay = *cp.HideFromDisplay
	}
}

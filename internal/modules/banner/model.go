package banner

import "time"

// DateLayout is the wire format of validity dates.
const DateLayout = "2006-01-02"

type OfferType string

const (
	OfferDiscount OfferType = "discount"
	OfferSeasonal OfferType = "seasonal"
	OfferLimited  OfferType = "limited"
	OfferFlash    OfferType = "flash"
)

// Position is where on the storefront a banner is shown.
type Position string

const (
	PositionHomepage Position = "homepage"
	PositionProducts Position = "products"
	PositionAll      Position = "all"
)

// Banner is a promotional offer shown on the storefront while active and in its window.
type Banner struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	OfferType       OfferType `json:"offer_type"`
	DiscountPercent *int      `json:"discount_percent,omitempty"`
	ValidFrom       time.Time `json:"valid_from"`
	ValidTo         time.Time `json:"valid_to"`
	IsActive        bool      `json:"is_active"`
	Position        Position  `json:"position"`
	ImageURL        string    `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LiveOn reports whether the banner should be shown on day at position.
// An empty position matches every banner.
func (b *Banner) LiveOn(day time.Time, position Position) bool {
	if !b.IsActive {
		return false
	}
	d := truncateDay(day)
	if d.Before(truncateDay(b.ValidFrom)) || d.After(truncateDay(b.ValidTo)) {
		return false
	}
	return position == "" || b.Position == PositionAll || b.Position == position
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Input is the admin payload for creating or replacing a banner.
type Input struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description" validate:"max=2000"`
	OfferType       string `json:"offer_type" validate:"required,oneof=discount seasonal limited flash"`
	DiscountPercent *int   `json:"discount_percent" validate:"omitempty,min=0,max=100"`
	ValidFrom       string `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo         string `json:"valid_to" validate:"required,datetime=2006-01-02"`
	IsActive        *bool  `json:"is_active"`
	Position        string `json:"position" validate:"omitempty,oneof=homepage products all"`
	ImageURL        string `json:"image_url" validate:"omitempty,url"`
}

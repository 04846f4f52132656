package banner

import (
	"context"
	"time"
)

// Repository defines data access for banners.
type Repository interface {
	// List returns every banner, newest first.
	List(ctx context.Context) ([]*Banner, error)

	// ListLive returns active banners whose window contains day, ordered by
	// valid_to then created_at. An empty position matches every banner.
	ListLive(ctx context.Context, day time.Time, position Position) ([]*Banner, error)

	Get(ctx context.Context, id string) (*Banner, error)
	Create(ctx context.Context, b *Banner) error
	Update(ctx context.Context, b *Banner) error
	Delete(ctx context.Context, id string) error
}

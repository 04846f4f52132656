package banner

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const bannerColumns = `id, title, description, offer_type, discount_percent, valid_from, valid_to,
	       is_active, position, image_url, created_at, updated_at`

func (r *postgresRepo) List(ctx context.Context) ([]*Banner, error) {
	return r.query(ctx, `SELECT `+bannerColumns+` FROM banners ORDER BY created_at DESC, id ASC`)
}

func (r *postgresRepo) ListLive(ctx context.Context, day time.Time, position Position) ([]*Banner, error) {
	d := day.Format(DateLayout)
	if position == "" {
		return r.query(ctx, `
			SELECT `+bannerColumns+`
			FROM banners
			WHERE is_active = true AND valid_from <= $1::date AND valid_to >= $1::date
			ORDER BY valid_to ASC, created_at ASC`, d)
	}
	return r.query(ctx, `
		SELECT `+bannerColumns+`
		FROM banners
		WHERE is_active = true AND valid_from <= $1::date AND valid_to >= $1::date
		  AND position IN ($2, 'all')
		ORDER BY valid_to ASC, created_at ASC`, d, position)
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*Banner, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	b, err := scanBanner(r.db.QueryRowContext(ctx,
		`SELECT `+bannerColumns+` FROM banners WHERE id=$1`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *postgresRepo) Create(ctx context.Context, b *Banner) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO banners
		  (id, title, description, offer_type, discount_percent, valid_from, valid_to, is_active, position, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		b.ID, b.Title, b.Description, b.OfferType, b.DiscountPercent,
		b.ValidFrom.Format(DateLayout), b.ValidTo.Format(DateLayout), b.IsActive, b.Position, b.ImageURL).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *postgresRepo) Update(ctx context.Context, b *Banner) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE banners
		SET title=$1, description=$2, offer_type=$3, discount_percent=$4, valid_from=$5, valid_to=$6,
		    is_active=$7, position=$8, image_url=$9, updated_at=NOW()
		WHERE id=$10
		RETURNING updated_at`,
		b.Title, b.Description, b.OfferType, b.DiscountPercent,
		b.ValidFrom.Format(DateLayout), b.ValidTo.Format(DateLayout), b.IsActive, b.Position, b.ImageURL, b.ID).
		Scan(&b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM banners WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) query(ctx context.Context, query string, args ...any) ([]*Banner, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Banner{}
	for rows.Next() {
		b, err := scanBanner(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBanner(scan func(...any) error) (*Banner, error) {
	b := &Banner{}
	var discount sql.NullInt32
	var description, imageURL sql.NullString
	if err := scan(&b.ID, &b.Title, &description, &b.OfferType, &discount, &b.ValidFrom, &b.ValidTo,
		&b.IsActive, &b.Position, &imageURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if discount.Valid {
		d := int(discount.Int32)
		b.DiscountPercent = &d
	}
	b.Description = description.String
	b.ImageURL = imageURL.String
	return b, nil
}

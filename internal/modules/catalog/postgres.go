package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// productColumns maps descriptor columns onto SQL expressions. Anything else is rejected.
var productColumns = map[string]string{
	"is_active":    "p.is_active",
	"category_id":  "p.category_id",
	"model_number": "p.model_number",
	"mrp":          "p.mrp",
	"created_at":   "p.created_at",
}

// The category and the variant/image graph are embedded as JSON so a page is one round trip.
const productSelect = `
	SELECT p.id, p.model_number, p.mrp, p.category_id, p.is_active, p.created_at, p.updated_at,
	       to_jsonb(c),
	       COALESCE((
	           SELECT json_agg(json_build_object(
	                      'id', v.id,
	                      'color_name', v.color_name,
	                      'is_default', v.is_default,
	                      'images', COALESCE((
	                          SELECT json_agg(json_build_object('image_url', i.image_url, 'is_primary', i.is_primary)
	                                          ORDER BY i.display_order, i.id)
	                          FROM product_images i WHERE i.variant_id = v.id), '[]'::json))
	                  ORDER BY v.created_at, v.id)
	           FROM product_variants v WHERE v.product_id = p.id), '[]'::json)
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

func (r *postgresRepo) QueryProducts(ctx context.Context, q QueryDescriptor) ([]*Product, int, error) {
	where, args, err := buildWhere(q.Filters)
	if err != nil {
		return nil, 0, err
	}
	orderBy, err := buildOrderBy(q.Order)
	if err != nil {
		return nil, 0, err
	}

	query := productSelect + where + orderBy + buildWindow(q)
	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	if !q.CountExact {
		return products, len(products), nil
	}
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, count, nil
}

func buildWhere(filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		col, ok := productColumns[f.Column]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter column %q", f.Column)
		}
		n := len(args) + 1
		switch f.Op {
		case OpEq:
			clauses = append(clauses, fmt.Sprintf("%s = $%d", col, n))
			args = append(args, f.Value)
		case OpContains:
			term, _ := f.Value.(string)
			clauses = append(clauses, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, col, n))
			args = append(args, "%"+escapeLike(term)+"%")
		case OpIn:
			ids, _ := f.Value.([]string)
			clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", col, n))
			args = append(args, pq.Array(ids))
		default:
			return "", nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return "\n\tWHERE " + strings.Join(clauses, " AND "), args, nil
}

func buildOrderBy(o Order) (string, error) {
	col, ok := productColumns[o.Column]
	if !ok {
		return "", fmt.Errorf("unsupported order column %q", o.Column)
	}
	dir := "DESC"
	if o.Ascending {
		dir = "ASC"
	}
	// id breaks ties so equal sort keys page deterministically.
	return fmt.Sprintf("\n\tORDER BY %s %s, p.id ASC", col, dir), nil
}

func buildWindow(q QueryDescriptor) string {
	if limit := q.Limit(); limit >= 0 {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, q.From)
	}
	if q.From > 0 {
		return fmt.Sprintf(" OFFSET %d", q.From)
	}
	return ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func (r *postgresRepo) queryProducts(ctx context.Context, query string, args ...any) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(scan func(...any) error) (*Product, error) {
	p := &Product{}
	var category, variants []byte
	if err := scan(&p.ID, &p.ModelNumber, &p.MRP, &p.CategoryID, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt, &category, &variants); err != nil {
		return nil, err
	}
	if category != nil {
		p.Category = &Category{}
		if err := json.Unmarshal(category, p.Category); err != nil {
			return nil, fmt.Errorf("decode category of %s: %w", p.ID, err)
		}
	}
	if err := json.Unmarshal(variants, &p.Variants); err != nil {
		return nil, fmt.Errorf("decode variants of %s: %w", p.ID, err)
	}
	return p, nil
}

func (r *postgresRepo) GetProduct(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+"\n\tWHERE p.id = $1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) ListAllProducts(ctx context.Context) ([]*Product, error) {
	return r.queryProducts(ctx, productSelect+"\n\tORDER BY p.created_at DESC, p.id ASC")
}

const insertProduct = `
	INSERT INTO products (id, model_number, mrp, category_id, is_active)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at`

func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, insertProduct,
		p.ID, p.ModelNumber, p.MRP, p.CategoryID, p.IsActive).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapWriteError(err)
}

// CreateProducts inserts every product inside a single transaction.
func (r *postgresRepo) CreateProducts(ctx context.Context, ps []*Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range ps {
		err := tx.QueryRowContext(ctx, insertProduct,
			p.ID, p.ModelNumber, p.MRP, p.CategoryID, p.IsActive).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ModelNumber, mapWriteError(err))
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) UpdateProduct(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET model_number=$1, mrp=$2, category_id=$3, is_active=$4, updated_at=NOW()
		WHERE id=$5
		RETURNING updated_at`,
		p.ModelNumber, p.MRP, p.CategoryID, p.IsActive, p.ID).Scan(&p.UpdatedAt)
	return mapWriteError(err)
}

func (r *postgresRepo) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ── categories ───────────────────────────────────────────────────────────────

func (r *postgresRepo) ListCategories(ctx context.Context, tier CategoryTier) ([]Category, error) {
	query := `
		SELECT id, name, is_active, hide_from_display
		FROM categories
		WHERE is_active = true AND hide_from_display = false
		ORDER BY name ASC`
	if tier == TierActive {
		// hide_from_display may not exist in older schemas.
		query = `
		SELECT id, name, is_active, false
		FROM categories
		WHERE is_active = true
		ORDER BY name ASC`
	}
	return r.queryCategories(ctx, query)
}

func (r *postgresRepo) ListAllCategories(ctx context.Context) ([]Category, error) {
	return r.queryCategories(ctx, `
		SELECT id, name, is_active, hide_from_display FROM categories ORDER BY name ASC`)
}

func (r *postgresRepo) queryCategories(ctx context.Context, query string, args ...any) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.HideFromDisplay); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresRepo) GetCategory(ctx context.Context, id string) (*Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	c := &Category{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, is_active, hide_from_display FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.IsActive, &c.HideFromDisplay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *postgresRepo) CreateCategory(ctx context.Context, c *Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, is_active, hide_from_display) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.IsActive, c.HideFromDisplay)
	return mapWriteError(err)
}

func (r *postgresRepo) UpdateCategory(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name=$1, is_active=$2, hide_from_display=$3, updated_at=NOW() WHERE id=$4`,
		c.Name, c.IsActive, c.HideFromDisplay, c.ID)
	if err != nil {
		return mapWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// mapWriteError turns driver errors into catalog sentinels where one applies.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Detail)
		case "23503":
			return fmt.Errorf("%w: unknown category", ErrInvalidProduct)
		}
	}
	return err
}

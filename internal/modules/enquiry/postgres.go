package enquiry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const enquirySelect = `
	SELECT e.id, e.company_name, e.contact_person, e.email, e.phone, e.purpose,
	       e.customization_needed, e.customization_requirements, e.message, e.status,
	       e.created_at, e.updated_at,
	       COALESCE((
	           SELECT json_agg(json_build_object('model_number', i.model_number, 'quantity', i.quantity)
	                           ORDER BY i.position)
	           FROM enquiry_items i WHERE i.enquiry_id = e.id), '[]'::json)
	FROM enquiries e`

// Create inserts the enquiry and all its items inside a single transaction.
func (r *postgresRepo) Create(ctx context.Context, e *Enquiry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO enquiries
		  (id, company_name, contact_person, email, phone, purpose,
		   customization_needed, customization_requirements, message, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		e.ID, e.CompanyName, e.ContactPerson, e.Email, e.Phone, e.Purpose,
		e.CustomizationNeeded, e.CustomizationRequirements, e.Message, e.Status).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert enquiry: %w", err)
	}

	for i, item := range e.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO enquiry_items (enquiry_id, position, model_number, quantity)
			VALUES ($1,$2,$3,$4)`,
			e.ID, i, item.ModelNumber, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert enquiry_item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*Enquiry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	e, err := scanEnquiry(r.db.QueryRowContext(ctx, enquirySelect+"\n\tWHERE e.id = $1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]*Enquiry, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			`(e.company_name ILIKE $%d ESCAPE '\' OR e.contact_person ILIKE $%d ESCAPE '\' OR e.email ILIKE $%d ESCAPE '\')`, n, n, n))
	}
	query := enquirySelect
	if len(clauses) > 0 {
		query += "\n\tWHERE " + strings.Join(clauses, " AND ")
	}
	query += "\n\tORDER BY e.created_at DESC, e.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Enquiry{}
	for rows.Next() {
		e, err := scanEnquiry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE enquiries SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM enquiries GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

// ── helpers ──────────────────────────────────────────────────────────────────

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanEnquiry(scan func(...any) error) (*Enquiry, error) {
	e := &Enquiry{}
	var items []byte
	if err := scan(&e.ID, &e.CompanyName, &e.ContactPerson, &e.Email, &e.Phone, &e.Purpose,
		&e.CustomizationNeeded, &e.CustomizationRequirements, &e.Message, &e.Status,
		&e.CreatedAt, &e.UpdatedAt, &items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &e.Items); err != nil {
		return nil, fmt.Errorf("decode items of %s: %w", e.ID, err)
	}
	return e, nil
}

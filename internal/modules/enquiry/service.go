package enquiry

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Service defines enquiry business logic.
type Service interface {
	// Submit records a storefront enquiry. Blank product lines are dropped;
	// at least one line with a model number and a positive quantity is required.
	Submit(ctx context.Context, req SubmitRequest) (*Enquiry, error)

	Get(ctx context.Context, id string) (*Enquiry, error)
	List(ctx context.Context, f Filter) ([]*Enquiry, error)

	// UpdateStatus moves an enquiry to any known status.
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Enquiry, error)

	CountByStatus(ctx context.Context) (map[Status]int, error)

	// Export writes matching enquiries as CSV, one row per product line.
	Export(ctx context.Context, w io.Writer, f Filter) error
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*Enquiry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	var items []Item
	for _, line := range req.Products {
		model := strings.TrimSpace(line.ModelNumber)
		if model == "" || line.Quantity <= 0 {
			continue
		}
		items = append(items, Item{ModelNumber: model, Quantity: line.Quantity})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one product with model number and quantity is required", ErrInvalid)
	}

	e := &Enquiry{
		ID:                        uuid.New().String(),
		CompanyName:               strings.TrimSpace(req.Company),
		ContactPerson:             strings.TrimSpace(req.Name),
		Email:                     strings.TrimSpace(req.Email),
		Phone:                     strings.TrimSpace(req.Phone),
		Purpose:                   strings.TrimSpace(req.Purpose),
		CustomizationNeeded:       req.CustomizationNeeded,
		CustomizationRequirements: strings.TrimSpace(req.CustomizationRequirements),
		Message:                   strings.TrimSpace(req.Message),
		Status:                    StatusNew,
		Items:                     items,
	}
	if !e.CustomizationNeeded {
		e.CustomizationRequirements = ""
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to persist enquiry: %w", err)
	}
	enquiriesSubmitted.Inc()
	s.logger.InfoContext(ctx, "enquiry submitted", "id", e.ID, "company", e.CompanyName, "items", len(items))
	return e, nil
}

func (s *service) Get(ctx context.Context, id string) (*Enquiry, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, f Filter) ([]*Enquiry, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	return s.repo.List(ctx, f)
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Enquiry, error) {
	status := Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "enquiry status updated", "id", id, "status", status)
	return s.repo.Get(ctx, id)
}

func (s *service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *service) Export(ctx context.Context, w io.Writer, f Filter) error {
	enquiries, err := s.List(ctx, f)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Company", "Contact", "Email", "Phone", "Product", "Quantity", "Status", "Date"}); err != nil {
		return err
	}
	for _, e := range enquiries {
		items := e.Items
		if len(items) == 0 {
			items = []Item{{}}
		}
		for _, item := range items {
			qty := ""
			if item.Quantity > 0 {
				qty = strconv.Itoa(item.Quantity)
			}
			if err := cw.Write([]string{
				e.CompanyName, e.ContactPerson, e.Email, e.Phone,
				item.ModelNumber, qty, string(e.Status),
				e.CreatedAt.UTC().Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// validationError turns validator output into a single ErrInvalid message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

package banner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Service defines banner business logic.
type Service interface {
	List(ctx context.Context) ([]*Banner, error)

	// Live returns the banners the storefront should show today at position.
	Live(ctx context.Context, position string) ([]*Banner, error)

	Get(ctx context.Context, id string) (*Banner, error)
	Create(ctx context.Context, in Input) (*Banner, error)
	// Replace overwrites every editable field of a banner.
	Replace(ctx context.Context, id string, in Input) (*Banner, error)
	// Toggle flips is_active.
	Toggle(ctx context.Context, id string) (*Banner, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{repo: repo, logger: logger, now: time.Now}
}

func (s *service) List(ctx context.Context) ([]*Banner, error) {
	return s.repo.List(ctx)
}

func (s *service) Live(ctx context.Context, position string) ([]*Banner, error) {
	p := Position(strings.ToLower(strings.TrimSpace(position)))
	switch p {
	case "", PositionHomepage, PositionProducts, PositionAll:
	default:
		return nil, fmt.Errorf("%w: unknown position %q", ErrInvalid, position)
	}
	if p == PositionAll {
		p = ""
	}
	return s.repo.ListLive(ctx, s.now(), p)
}

func (s *service) Get(ctx context.Context, id string) (*Banner, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) Create(ctx context.Context, in Input) (*Banner, error) {
	b := &Banner{ID: uuid.New().String(), IsActive: true}
	if err := apply(b, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "banner created", "id", b.ID, "title", b.Title)
	return b, nil
}

func (s *service) Replace(ctx context.Context, id string, in Input) (*Banner, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(b, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "banner updated", "id", b.ID)
	return b, nil
}

func (s *service) Toggle(ctx context.Context, id string) (*Banner, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.IsActive = !b.IsActive
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "banner toggled", "id", b.ID, "is_active", b.IsActive)
	return b, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "banner deleted", "id", id)
	return nil
}

// apply validates in and copies it onto b. is_active is left unchanged when omitted.
func apply(b *Banner, in Input) error {
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	from, _ := time.Parse(DateLayout, in.ValidFrom)
	to, _ := time.Parse(DateLayout, in.ValidTo)
	if from.After(to) {
		return fmt.Errorf("%w: valid_from must not be after valid_to", ErrInvalid)
	}

	b.Title = in.Title
	b.Description = strings.TrimSpace(in.Description)
	b.OfferType = OfferType(in.OfferType)
	b.DiscountPercent = in.DiscountPercent
	b.ValidFrom, b.ValidTo = from, to
	b.Position = PositionHomepage
	if in.Position != "" {
		b.Position = Position(in.Position)
	}
	b.ImageURL = in.ImageURL
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

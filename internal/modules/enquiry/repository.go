package enquiry

import "context"

// Repository defines data access for enquiries.
type Repository interface {
	// Create persists the enquiry and its items atomically.
	Create(ctx context.Context, e *Enquiry) error

	Get(ctx context.Context, id string) (*Enquiry, error)

	// List returns matching enquiries, newest first.
	List(ctx context.Context, f Filter) ([]*Enquiry, error)

	UpdateStatus(ctx context.Context, id string, status Status) error

	// CountByStatus returns the number of enquiries per status. Missing statuses count zero.
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

package enquiry

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

type fakeRepo struct {
	mu        sync.Mutex
	enquiries []*Enquiry
	clock     time.Time
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (r *fakeRepo) Create(_ context.Context, e *Enquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.clock = r.clock.Add(time.Hour)
	e.CreatedAt, e.UpdatedAt = r.clock, r.clock
	cp := *e
	cp.Items = slices.Clone(e.Items)
	r.enquiries = append(r.enquiries, &cp)
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (*Enquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.enquiries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) List(_ context.Context, f Filter) ([]*Enquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := []*Enquiry{}
	for i := len(r.enquiries) - 1; i >= 0; i-- {
		e := r.enquiries[i]
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(e.CompanyName), term) &&
			!strings.Contains(strings.ToLower(e.ContactPerson), term) &&
			!strings.Contains(strings.ToLower(e.Email), term) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.enquiries {
		if e.ID == id {
			e.Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) CountByStatus(context.Context) (map[Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[Status]int{}
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, e := range r.enquiries {
		counts[e.Status]++
	}
	return counts, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validRequest() SubmitRequest {
	return SubmitRequest{
		Name:    "Asha Patel",
		Email:   "asha@acme.example",
		Phone:   "+91 98765 43210",
		Company: "Acme Gifts",
		Purpose: "Corporate gifting",
		Products: []ItemLine{
			{ModelNumber: "WC-101", Quantity: 50},
			{ModelNumber: "  ", Quantity: 10},
			{ModelNumber: "TC-7", Quantity: 0},
			{ModelNumber: " TC-8 ", Quantity: 25},
		},
	}
}

package enquiry

import "time"

// Status is where an enquiry is in the sales follow-up.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQuoteSent Status = "quote_sent"
	StatusCompleted Status = "completed"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{StatusNew, StatusContacted, StatusQuoteSent, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQuoteSent, StatusCompleted:
		return true
	}
	return false
}

// Enquiry is a bulk-order request submitted from the storefront.
type Enquiry struct {
	ID                        string    `json:"id"`
	CompanyName               string    `json:"company_name"`
	ContactPerson             string    `json:"contact_person"`
	Email                     string    `json:"email"`
	Phone                     string    `json:"phone"`
	Purpose                   string    `json:"purpose,omitempty"`
	CustomizationNeeded       bool      `json:"customization_needed"`
	CustomizationRequirements string    `json:"customization_requirements,omitempty"`
	Message                   string    `json:"message,omitempty"`
	Status                    Status    `json:"status"`
	Items                     []Item    `json:"items"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// Item is one requested product line.
type Item struct {
	ModelNumber string `json:"model_number"`
	Quantity    int    `json:"quantity"`
}

// SubmitRequest is the storefront enquiry form.
type SubmitRequest struct {
	Name                      string     `json:"name" validate:"required,max=200"`
	Email                     string     `json:"email" validate:"required,email"`
	Phone                     string     `json:"phone" validate:"required,max=40"`
	Company                   string     `json:"company" validate:"required,max=200"`
	Purpose                   string     `json:"purpose" validate:"max=200"`
	CustomizationNeeded       bool       `json:"customization_needed"`
	CustomizationRequirements string     `json:"customization_requirements" validate:"required_if=CustomizationNeeded true,max=2000"`
	Message                   string     `json:"message" validate:"max=5000"`
	Products                  []ItemLine `json:"products" validate:"dive"`
}

// ItemLine is a product row as typed into the form; blank rows are allowed and dropped.
type ItemLine struct {
	ModelNumber string `json:"model_number" validate:"max=100"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
}

// Filter narrows the admin list.
type Filter struct {
	Status Status
	// Search matches company, contact person or email, case-insensitively.
	Search string
}

// UpdateStatusRequest is the payload for moving an enquiry through the pipeline.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

package enquiry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var enquiriesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "enquiries_submitted_total",
	Help: "Storefront enquiries accepted.",
})

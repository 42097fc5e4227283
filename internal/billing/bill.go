package billing

import (
	"time"
)

// Draft is the editable state of a bill form. Every field is re-read on each computation.
type Draft struct {
	CustomerName  string     `json:"customerName" validate:"required,max=120"`
	CustomerPhone string     `json:"customerPhone" validate:"omitempty,max=20"`
	Notes         string     `json:"notes" validate:"max=1000"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Input
}

// Bill is the snapshot written to the document store on submit.
type Bill struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	Items         []LineItem      `json:"items"`
	Breakdown     ChargeBreakdown `json:"breakdown"`
	TaxPercent    string          `json:"taxPercent"`
	Discount      DiscountSpec    `json:"discount"`
	Totals        Totals          `json:"totals"`
	PaymentURI    string          `json:"paymentUri,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

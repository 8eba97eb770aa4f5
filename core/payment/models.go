package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/proclass/backend/core"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusOverdue   = "overdue"
	StatusCancelled = "cancelled"
)

var AllStatuses = []string{StatusPending, StatusPaid, StatusOverdue, StatusCancelled}

// FormatMonth formats t as a "YYYY-MM" reference month token.
func FormatMonth(t time.Time) string {
	return t.Format("2006-01")
}

type Payment struct {
	ID        string          `json:"id"`
	StudentID string          `json:"student_id"`
	TeacherID string          `json:"teacher_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	// ReferenceMonth is the "YYYY-MM" billing period this payment covers,
	// distinct from DueDate/PaidAt which are calendar dates.
	ReferenceMonth string     `json:"reference_month"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at"` // UTC
}

// IsActive reports whether the payment counts as settling its reference month
// (pending or paid). The reminder engine treats an active payment as proof the
// student needs no reminder that month.
func (p *Payment) IsActive() bool {
	return p.Status == StatusPending || p.Status == StatusPaid
}

// NewPayment contains information needed to record a new Payment.
type NewPayment struct {
	StudentID      string          `json:"student_id" validate:"required,uuid4"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status" validate:"omitempty,oneof=pending paid overdue cancelled"`
	ReferenceMonth string          `json:"reference_month" validate:"omitempty,refmonth"`
	DueDate        *time.Time      `json:"due_date"`
	Notes          string          `json:"notes"`
}

func (np *NewPayment) Validate() error {
	np.Notes = core.CleanString(np.Notes)
	if np.Status == "" {
		np.Status = StatusPending
	}
	if np.ReferenceMonth == "" {
		np.ReferenceMonth = FormatMonth(time.Now())
	}

	if err := core.Validate.Struct(np); err != nil {
		return err
	}
	if !np.Amount.IsPositive() {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "must be greater than zero"})
	}
	return nil
}

// UpdatePayment defines what information may be provided to modify an existing Payment.
type UpdatePayment struct {
	Amount         *decimal.Decimal `json:"amount"`
	Status         string           `json:"status" validate:"omitempty,oneof=pending paid overdue cancelled"`
	ReferenceMonth string           `json:"reference_month" validate:"omitempty,refmonth"`
	DueDate        *time.Time       `json:"due_date"`
	PaidAt         *time.Time       `json:"paid_at"`
	Notes          *string          `json:"notes"`
}

func (up *UpdatePayment) Validate() error {
	if err := core.Validate.Struct(up); err != nil {
		return err
	}
	if up.Amount != nil && !up.Amount.IsPositive() {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "must be greater than zero"})
	}
	return nil
}

// Merge applies the update on top of orig and returns the resulting Payment.
func (up *UpdatePayment) Merge(orig Payment) Payment {
	p := orig
	if up.Amount != nil {
		p.Amount = *up.Amount
	}
	if up.Status != "" {
		p.Status = up.Status
	}
	if up.ReferenceMonth != "" {
		p.ReferenceMonth = up.ReferenceMonth
	}
	if up.DueDate != nil {
		p.DueDate = up.DueDate
	}
	if up.PaidAt != nil {
		p.PaidAt = up.PaidAt
	}
	if up.Notes != nil {
		p.Notes = core.CleanString(*up.Notes)
	}
	p.UpdatedAt = time.Now().UTC()
	return p
}

type QueryFilter struct {
	StudentID      string `query:"student_id"`
	Status         string `query:"status"`
	ReferenceMonth string `query:"reference_month"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Status == "" && qf.ReferenceMonth == ""
}

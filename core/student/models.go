package student

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/proclass/backend/core"
)

// Statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusTrial    = "trial"
)

var AllStatuses = []string{StatusActive, StatusInactive, StatusTrial}

type Student struct {
	ID         string           `json:"id"`
	TeacherID  string           `json:"teacher_id"`
	Name       string           `json:"name"`
	Phone      string           `json:"phone,omitempty"`
	Status     string           `json:"status"`
	MonthlyFee *decimal.Decimal `json:"monthly_fee,omitempty"`
	PaymentDay *int             `json:"payment_day,omitempty"`
	ChargeFee  bool             `json:"charge_fee"`
	Notes      string           `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"created_at"` // UTC
	UpdatedAt  time.Time        `json:"updated_at"` // UTC
}

// ReminderEligible reports whether the student has everything a payment
// reminder needs: active, billable, a fee, a due day and a phone number.
func (s *Student) ReminderEligible() bool {
	return s.Status == StatusActive &&
		s.ChargeFee &&
		s.MonthlyFee != nil &&
		s.PaymentDay != nil &&
		s.Phone != ""
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name       string           `json:"name" validate:"required"`
	Phone      string           `json:"phone" validate:"omitempty,min=8"`
	Status     string           `json:"status" validate:"omitempty,oneof=active inactive trial"`
	MonthlyFee *decimal.Decimal `json:"monthly_fee"`
	PaymentDay *int             `json:"payment_day" validate:"omitempty,min=1,max=31"`
	ChargeFee  *bool            `json:"charge_fee"`
	Notes      string           `json:"notes"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Notes = core.CleanString(ns.Notes)
	if ns.Status == "" {
		ns.Status = StatusActive
	}

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	if ns.MonthlyFee != nil && ns.MonthlyFee.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "monthly_fee", Error: "must not be negative"})
	}
	return nil
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil/empty fields keep their current value.
type UpdateStudent struct {
	Name       string           `json:"name"`
	Phone      *string          `json:"phone"`
	Status     string           `json:"status" validate:"omitempty,oneof=active inactive trial"`
	MonthlyFee *decimal.Decimal `json:"monthly_fee"`
	PaymentDay *int             `json:"payment_day" validate:"omitempty,min=1,max=31"`
	ChargeFee  *bool            `json:"charge_fee"`
	Notes      *string          `json:"notes"`
}

func (us *UpdateStudent) Validate(orig Student) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if us.Status == "" {
		us.Status = orig.Status
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	if us.MonthlyFee != nil && us.MonthlyFee.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "monthly_fee", Error: "must not be negative"})
	}
	return nil
}

// Merge applies the update on top of orig and returns the resulting Student.
func (us *UpdateStudent) Merge(orig Student) Student {
	s := orig
	s.Name = us.Name
	s.Status = us.Status
	if us.Phone != nil {
		s.Phone = core.CleanString(*us.Phone)
	}
	if us.MonthlyFee != nil {
		s.MonthlyFee = us.MonthlyFee
	}
	if us.PaymentDay != nil {
		s.PaymentDay = us.PaymentDay
	}
	if us.ChargeFee != nil {
		s.ChargeFee = *us.ChargeFee
	}
	if us.Notes != nil {
		s.Notes = core.CleanString(*us.Notes)
	}
	s.UpdatedAt = time.Now().UTC()
	return s
}

type QueryFilter struct {
	Search string `query:"search"`
	Status string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

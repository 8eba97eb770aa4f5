package reminder

import (
	"time"

	"github.com/proclass/backend/core/payment"
	"github.com/proclass/backend/core/student"
)

// Decision is the outcome of evaluating one student for a payment reminder.
type Decision int

const (
	// SkipIneligible: the student fails the base billing invariant
	// (not active, not charged, or missing fee/due day/phone).
	SkipIneligible Decision = iota
	// SkipAlreadySent: an active payment already covers the current month.
	SkipAlreadySent
	// SkipNotDue: today is neither the target day nor past the due day.
	SkipNotDue
	// SendDue: today is exactly dueDay - leadDays.
	SendDue
	// SendOverdue: today is past the due day.
	SendOverdue
)

func (d Decision) ShouldSend() bool { return d == SendDue || d == SendOverdue }
func (d Decision) Overdue() bool    { return d == SendOverdue }

func (d Decision) String() string {
	switch d {
	case SkipIneligible:
		return "skip_ineligible"
	case SkipAlreadySent:
		return "skip_already_sent"
	case SkipNotDue:
		return "skip_not_due"
	case SendDue:
		return "send"
	case SendOverdue:
		return "send_overdue"
	}
	return "unknown"
}

// Evaluate decides whether a payment reminder is due for std today.
// Pure function; every call site interprets the Decision the same way so the
// rule lives in exactly one place.
func Evaluate(std student.Student, payments []payment.Payment, today time.Time, pol Policy) Decision {
	if !std.ReminderEligible() {
		return SkipIneligible
	}

	// an active (pending or paid) payment for the current month settles it
	currentMonth := payment.FormatMonth(today)
	for i := range payments {
		p := &payments[i]
		if p.StudentID == std.ID && p.ReferenceMonth == currentMonth && p.IsActive() {
			return SkipAlreadySent
		}
	}

	dueDay := *std.PaymentDay
	currentDay := today.Day()
	// targetDay may fall outside 1..31 when dueDay is near a month edge and
	// LeadDays is large; it then never matches currentDay (no wraparound).
	targetDay := dueDay - pol.LeadDays

	if currentDay > dueDay {
		return SendOverdue
	}
	if currentDay == targetDay {
		return SendDue
	}
	return SkipNotDue
}

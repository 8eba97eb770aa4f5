package reminder

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/proclass/backend/core/payment"
	"github.com/proclass/backend/core/student"
)

func day(d int) time.Time {
	return time.Date(2021, time.March, d, 10, 0, 0, 0, time.UTC)
}

func eligibleStudent(dueDay int) student.Student {
	fee := decimal.NewFromInt(150)
	return student.Student{
		ID:         "std-1",
		TeacherID:  "tch-1",
		Name:       "Ana",
		Phone:      "(11) 98888-7777",
		Status:     student.StatusActive,
		MonthlyFee: &fee,
		PaymentDay: &dueDay,
		ChargeFee:  true,
	}
}

func Test_Evaluate_ineligibleStudents(t *testing.T) {
	fee := decimal.NewFromInt(100)
	noFee := eligibleStudent(10)
	noFee.MonthlyFee = nil
	noDay := eligibleStudent(10)
	noDay.PaymentDay = nil
	noPhone := eligibleStudent(10)
	noPhone.Phone = ""
	inactive := eligibleStudent(10)
	inactive.Status = student.StatusInactive
	trial := eligibleStudent(10)
	trial.Status = student.StatusTrial
	noCharge := eligibleStudent(10)
	noCharge.ChargeFee = false

	tests := []struct {
		name string
		std  student.Student
	}{
		{name: "inactive", std: inactive},
		{name: "trial", std: trial},
		{name: "chargeFee off", std: noCharge},
		{name: "no monthly fee", std: noFee},
		{name: "no payment day", std: noDay},
		{name: "no phone", std: noPhone},
	}

	pol := Policy{LeadDays: 3}
	// regardless of date or existing payments
	payments := []payment.Payment{
		{StudentID: "std-1", ReferenceMonth: "2021-03", Status: payment.StatusPaid, Amount: fee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for d := 1; d <= 31; d++ {
				if got := Evaluate(tt.std, payments, day(d), pol); got != SkipIneligible {
					t.Errorf("Evaluate() day %d = %v, want SkipIneligible", d, got)
				}
				if got := Evaluate(tt.std, nil, day(d), pol); got != SkipIneligible {
					t.Errorf("Evaluate() day %d (no payments) = %v, want SkipIneligible", d, got)
				}
			}
		})
	}
}

func Test_Evaluate_currentMonthPaymentWins(t *testing.T) {
	std := eligibleStudent(10)
	pol := Policy{LeadDays: 3}
	amount := decimal.NewFromInt(150)

	tests := []struct {
		name   string
		pmt    payment.Payment
		want   Decision
		today  time.Time
	}{
		{
			name:  "paid payment this month",
			pmt:   payment.Payment{StudentID: std.ID, ReferenceMonth: "2021-03", Status: payment.StatusPaid, Amount: amount},
			today: day(7), // target day: would otherwise send
			want:  SkipAlreadySent,
		},
		{
			name:  "pending payment this month",
			pmt:   payment.Payment{StudentID: std.ID, ReferenceMonth: "2021-03", Status: payment.StatusPending, Amount: amount},
			today: day(15), // overdue: would otherwise send
			want:  SkipAlreadySent,
		},
		{
			name:  "cancelled payment does not count",
			pmt:   payment.Payment{StudentID: std.ID, ReferenceMonth: "2021-03", Status: payment.StatusCancelled, Amount: amount},
			today: day(7),
			want:  SendDue,
		},
		{
			name:  "other month's payment does not count",
			pmt:   payment.Payment{StudentID: std.ID, ReferenceMonth: "2021-02", Status: payment.StatusPaid, Amount: amount},
			today: day(7),
			want:  SendDue,
		},
		{
			name:  "other student's payment does not count",
			pmt:   payment.Payment{StudentID: "std-2", ReferenceMonth: "2021-03", Status: payment.StatusPaid, Amount: amount},
			today: day(7),
			want:  SendDue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(std, []payment.Payment{tt.pmt}, tt.today, pol); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_Evaluate_overdueEveryDayPastDue(t *testing.T) {
	std := eligibleStudent(10)
	pol := Policy{LeadDays: 3}

	for d := 11; d <= 31; d++ {
		got := Evaluate(std, nil, day(d), pol)
		if got != SendOverdue {
			t.Errorf("Evaluate() day %d = %v, want SendOverdue", d, got)
		}
		if !got.ShouldSend() || !got.Overdue() {
			t.Errorf("day %d: ShouldSend()=%v Overdue()=%v, want true/true", d, got.ShouldSend(), got.Overdue())
		}
	}
}

func Test_Evaluate_targetDayExactness(t *testing.T) {
	std := eligibleStudent(10)
	pol := Policy{LeadDays: 3}

	for d := 1; d <= 10; d++ {
		want := SkipNotDue
		if d == 7 { // dueDay - leadDays
			want = SendDue
		}
		if got := Evaluate(std, nil, day(d), pol); got != want {
			t.Errorf("Evaluate() day %d = %v, want %v", d, got, want)
		}
	}
}

func Test_Evaluate_targetDayOutOfRangeNeverMatches(t *testing.T) {
	// dueDay near the month start with a large lead time puts the target day
	// below 1; no wraparound into the previous month happens.
	std := eligibleStudent(2)
	pol := Policy{LeadDays: 10}

	for d := 1; d <= 2; d++ {
		if got := Evaluate(std, nil, day(d), pol); got != SkipNotDue {
			t.Errorf("Evaluate() day %d = %v, want SkipNotDue", d, got)
		}
	}
	// past the due day it is plain overdue
	if got := Evaluate(std, nil, day(3), pol); got != SendOverdue {
		t.Errorf("Evaluate() day 3 = %v, want SendOverdue", got)
	}
}

func Test_Decision_String(t *testing.T) {
	for _, d := range []Decision{SkipIneligible, SkipAlreadySent, SkipNotDue, SendDue, SendOverdue} {
		if s := d.String(); s == "unknown" || s == "" {
			t.Errorf("Decision(%d).String() = %q", d, s)
		}
	}
	if s := fmt.Sprint(Decision(99).String()); s != "unknown" {
		t.Errorf("Decision(99).String() = %q, want unknown", s)
	}
}

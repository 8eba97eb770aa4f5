package reminder

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/proclass/backend/core"
	"github.com/proclass/backend/core/payment"
	"github.com/proclass/backend/core/student"
)

// Outcome statuses
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

type (
	// Outcome is the per-student result of a batch run.
	Outcome struct {
		StudentID        string `json:"student_id"`
		StudentName      string `json:"student_name"`
		Status           string `json:"status"`
		Reason           string `json:"reason,omitempty"`
		Overdue          bool   `json:"overdue,omitempty"`
		ChannelMessageID string `json:"channel_message_id,omitempty"`
	}

	// BatchResult aggregates one reminder batch run.
	// Processed counts send attempts only; skipped students are not processed.
	BatchResult struct {
		Processed int       `json:"processed"`
		Sent      int       `json:"sent"`
		Failed    int       `json:"failed"`
		Skipped   int       `json:"skipped"`
		Outcomes  []Outcome `json:"outcomes"`
		Note      string    `json:"note,omitempty"`
	}

	// Alert is a dashboard row for a student whose reminder is (or will be) due.
	Alert struct {
		StudentID   string          `json:"student_id"`
		StudentName string          `json:"student_name"`
		Amount      decimal.Decimal `json:"amount"`
		DueDay      int             `json:"due_day"`
		Overdue     bool            `json:"overdue"`
	}

	// DirectSend is the evaluator-free single-student send request.
	DirectSend struct {
		Phone         string          `json:"phone" validate:"required,min=8"`
		StudentName   string          `json:"student_name" validate:"required"`
		Amount        decimal.Decimal `json:"amount"`
		DueDay        int             `json:"due_day" validate:"required,min=1,max=31"`
		CustomMessage string          `json:"custom_message"`
	}

	// ChannelFactory builds the messaging channel for a teacher's policy, so
	// each teacher sends through their own provider credentials.
	ChannelFactory func(pol Policy) core.MessagingService

	Service struct {
		conf     *core.Config
		students student.Repository
		payments payment.Repository
		policies PolicyRepository
		ledger   Ledger
		channels ChannelFactory
		logger   core.Logger
	}
)

func (ds *DirectSend) Validate() error {
	ds.Phone = core.CleanString(ds.Phone)
	ds.StudentName = core.CleanString(ds.StudentName)
	ds.CustomMessage = core.CleanString(ds.CustomMessage)
	if err := core.Validate.Struct(ds); err != nil {
		return err
	}
	if !ds.Amount.IsPositive() {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "must be greater than zero"})
	}
	return nil
}

func NewService(
	conf *core.Config,
	students student.Repository,
	payments payment.Repository,
	policies PolicyRepository,
	ledger Ledger,
	channels ChannelFactory,
	logger core.Logger,
) *Service {
	return &Service{
		conf:     conf,
		students: students,
		payments: payments,
		policies: policies,
		ledger:   ledger,
		channels: channels,
		logger:   logger,
	}
}

// GetPolicy returns the teacher's policy, falling back to app defaults when
// the teacher never configured reminders.
func (svc *Service) GetPolicy(ctx context.Context, teacherID string) (Policy, error) {
	pol, err := svc.policies.GetPolicyByTeacher(ctx, teacherID)
	if err == ErrPolicyNotFound {
		return Policy{
			TeacherID:       teacherID,
			LeadDays:        svc.conf.Reminder.DefaultLeadDays,
			MessageTemplate: svc.conf.Reminder.DefaultTemplate,
		}, nil
	}
	return pol, err
}

func (svc *Service) UpdatePolicy(ctx context.Context, teacherID string, up UpdatePolicy) (Policy, error) {
	pol, err := svc.GetPolicy(ctx, teacherID)
	if err != nil {
		return Policy{}, err
	}
	return svc.policies.UpsertPolicy(ctx, up.Merge(pol))
}

// RunForTeacher executes the scheduled reminder batch for one teacher.
// A missing or disabled policy is a clean no-op, not an error.
func (svc *Service) RunForTeacher(ctx context.Context, teacherID string, today time.Time) (BatchResult, error) {
	pol, err := svc.policies.GetPolicyByTeacher(ctx, teacherID)
	if err != nil {
		if err == ErrPolicyNotFound {
			return BatchResult{Note: "reminders not configured"}, nil
		}
		return BatchResult{}, errors.Wrap(err, "loading reminder policy")
	}
	if !pol.Enabled || !pol.AutoSendEnabled {
		return BatchResult{Note: "automatic reminders disabled"}, nil
	}
	return svc.run(ctx, teacherID, pol, today)
}

// SendAllPending is the manual batch trigger. It applies the same ledger
// dedup as the scheduled run, so triggering it after the daily job is a
// no-op for already-reminded students.
func (svc *Service) SendAllPending(ctx context.Context, teacherID string, today time.Time) (BatchResult, error) {
	pol, err := svc.policies.GetPolicyByTeacher(ctx, teacherID)
	if err != nil {
		if err == ErrPolicyNotFound {
			return BatchResult{Note: "reminders not configured"}, nil
		}
		return BatchResult{}, errors.Wrap(err, "loading reminder policy")
	}
	if !pol.Enabled {
		return BatchResult{Note: "reminders disabled"}, nil
	}
	return svc.run(ctx, teacherID, pol, today)
}

func (svc *Service) run(ctx context.Context, teacherID string, pol Policy, today time.Time) (BatchResult, error) {
	if !pol.HasCredentials() {
		return BatchResult{Note: "messaging channel not configured"}, nil
	}

	students, err := svc.students.QueryStudentsByTeacher(ctx, teacherID)
	if err != nil {
		return BatchResult{}, errors.Wrap(err, "loading students")
	}
	payments, err := svc.payments.QueryPaymentsByTeacher(ctx, teacherID)
	if err != nil {
		return BatchResult{}, errors.Wrap(err, "loading payments")
	}

	channel := svc.channels(pol)
	currentMonth := payment.FormatMonth(today)
	var res BatchResult

	// one student at a time; a failed send never aborts the batch
	for i := range students {
		std := students[i]
		if !std.ReminderEligible() {
			continue
		}

		sent, err := svc.ledger.HasBeenSent(ctx, teacherID, std.ID, currentMonth)
		if err != nil {
			return res, errors.Wrap(err, "checking reminder ledger")
		}
		if sent {
			res.Skipped++
			res.Outcomes = append(res.Outcomes, Outcome{
				StudentID:   std.ID,
				StudentName: std.Name,
				Status:      OutcomeSkipped,
				Reason:      "already reminded this month",
			})
			continue
		}

		decision := Evaluate(std, payments, today, pol)
		if !decision.ShouldSend() {
			res.Skipped++
			res.Outcomes = append(res.Outcomes, Outcome{
				StudentID:   std.ID,
				StudentName: std.Name,
				Status:      OutcomeSkipped,
				Reason:      decision.String(),
			})
			continue
		}

		body := Render(pol.MessageTemplate, std.Name, *std.MonthlyFee, *std.PaymentDay, decision.Overdue())
		to := core.NormalizePhone(std.Phone, svc.conf.Reminder.CountryCode)

		entry := LogEntry{
			TeacherID:      teacherID,
			StudentID:      std.ID,
			ReferenceMonth: currentMonth,
			SentAt:         time.Now().UTC(),
			AmountAtSend:   *std.MonthlyFee,
			DueDayAtSend:   *std.PaymentDay,
		}

		msgID, sendErr := channel.Send(ctx, core.TextMessage{To: to, Body: body})
		res.Processed++
		outcome := Outcome{
			StudentID:   std.ID,
			StudentName: std.Name,
			Overdue:     decision.Overdue(),
		}
		if sendErr != nil {
			res.Failed++
			entry.DeliveryStatus = DeliveryFailed
			entry.ErrorDetail = sendErr.Error()
			outcome.Status = OutcomeFailed
			outcome.Reason = sendErr.Error()
			svc.logger.Warn("reminder send failed", sendErr, map[string]interface{}{
				"teacher_id": teacherID, "student_id": std.ID,
			})
		} else {
			res.Sent++
			entry.DeliveryStatus = DeliverySent
			entry.ChannelMessageID = msgID
			outcome.Status = OutcomeSent
			outcome.ChannelMessageID = msgID
		}
		res.Outcomes = append(res.Outcomes, outcome)

		if err := svc.ledger.Record(ctx, entry); err != nil {
			if err == ErrDuplicateEntry {
				// concurrent run beat us to it; the duplicate send already happened
				svc.logger.Warn("duplicate reminder ledger entry", map[string]interface{}{
					"teacher_id": teacherID, "student_id": std.ID, "month": currentMonth,
				})
				continue
			}
			return res, errors.Wrap(err, "recording reminder ledger entry")
		}
	}
	return res, nil
}

// PendingAlerts lists students whose reminder is due today, for the dashboard.
// Same rule as the batch, no side effects.
func (svc *Service) PendingAlerts(ctx context.Context, teacherID string, today time.Time) ([]Alert, error) {
	pol, err := svc.GetPolicy(ctx, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "loading reminder policy")
	}
	students, err := svc.students.QueryStudentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "loading students")
	}
	payments, err := svc.payments.QueryPaymentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "loading payments")
	}

	alerts := make([]Alert, 0)
	for i := range students {
		std := students[i]
		decision := Evaluate(std, payments, today, pol)
		if !decision.ShouldSend() {
			continue
		}
		alerts = append(alerts, Alert{
			StudentID:   std.ID,
			StudentName: std.Name,
			Amount:      *std.MonthlyFee,
			DueDay:      *std.PaymentDay,
			Overdue:     decision.Overdue(),
		})
	}
	return alerts, nil
}

// SendDirect delivers a one-off reminder to a single phone number, bypassing
// the evaluator and the ledger entirely. No dedup applies on this path.
func (svc *Service) SendDirect(ctx context.Context, teacherID string, ds DirectSend) (string, error) {
	pol, err := svc.GetPolicy(ctx, teacherID)
	if err != nil {
		return "", errors.Wrap(err, "loading reminder policy")
	}
	if !pol.HasCredentials() {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "account_sid", Error: "messaging channel not configured",
		})
	}

	template := pol.MessageTemplate
	if ds.CustomMessage != "" {
		template = ds.CustomMessage
	}
	body := Render(template, ds.StudentName, ds.Amount, ds.DueDay, false)
	to := core.NormalizePhone(ds.Phone, svc.conf.Reminder.CountryCode)

	msgID, err := svc.channels(pol).Send(ctx, core.TextMessage{To: to, Body: body})
	if err != nil {
		return "", errors.Wrap(err, "sending direct reminder")
	}
	return msgID, nil
}

// Log returns the teacher's ledger entries for a reference month
// (all months when empty).
func (svc *Service) Log(ctx context.Context, teacherID, referenceMonth string) ([]LogEntry, error) {
	return svc.ledger.QueryEntriesByTeacher(ctx, teacherID, referenceMonth)
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/proclass/backend/core/reminder"
)

type logEntryRow struct {
	TeacherID        string          `db:"teacher_id"`
	StudentID        string          `db:"student_id"`
	ReferenceMonth   string          `db:"reference_month"`
	SentAt           time.Time       `db:"sent_at"`
	ChannelMessageID string          `db:"channel_message_id"`
	DeliveryStatus   string          `db:"delivery_status"`
	ErrorDetail      string          `db:"error_detail"`
	AmountAtSend     decimal.Decimal `db:"amount_at_send"`
	DueDayAtSend     int             `db:"due_day_at_send"`
}

func (r *logEntryRow) entry() reminder.LogEntry {
	return reminder.LogEntry{
		TeacherID:        r.TeacherID,
		StudentID:        r.StudentID,
		ReferenceMonth:   r.ReferenceMonth,
		SentAt:           r.SentAt,
		ChannelMessageID: r.ChannelMessageID,
		DeliveryStatus:   r.DeliveryStatus,
		ErrorDetail:      r.ErrorDetail,
		AmountAtSend:     r.AmountAtSend,
		DueDayAtSend:     r.DueDayAtSend,
	}
}

type reminderLedger struct {
	db *sqlx.DB
}

var _ reminder.Ledger = (*reminderLedger)(nil) // interface compliance check

func NewReminderLedger(db *sqlx.DB) *reminderLedger {
	return &reminderLedger{db: db}
}

func (repo *reminderLedger) HasBeenSent(ctx context.Context, teacherID, studentID, referenceMonth string) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM reminder_log WHERE teacher_id = $1 AND student_id = $2 AND reference_month = $3)`
	if err := repo.db.GetContext(ctx, &exists, q, teacherID, studentID, referenceMonth); err != nil {
		return false, errors.Wrap(err, "checking reminder log")
	}
	return exists, nil
}

func (repo *reminderLedger) Record(ctx context.Context, entry reminder.LogEntry) error {
	row := logEntryRow{
		TeacherID:        entry.TeacherID,
		StudentID:        entry.StudentID,
		ReferenceMonth:   entry.ReferenceMonth,
		SentAt:           entry.SentAt.UTC(),
		ChannelMessageID: entry.ChannelMessageID,
		DeliveryStatus:   entry.DeliveryStatus,
		ErrorDetail:      entry.ErrorDetail,
		AmountAtSend:     entry.AmountAtSend,
		DueDayAtSend:     entry.DueDayAtSend,
	}

	q := `
		INSERT INTO reminder_log (teacher_id, student_id, reference_month, sent_at, channel_message_id, delivery_status, error_detail, amount_at_send, due_day_at_send)
		VALUES (:teacher_id, :student_id, :reference_month, :sent_at, :channel_message_id, :delivery_status, :error_detail, :amount_at_send, :due_day_at_send)`
	if _, err := repo.db.NamedExecContext(ctx, q, &row); err != nil {
		if isUniqueViolation(err, "reminder_log_dedup_key") {
			return reminder.ErrDuplicateEntry
		}
		return errors.Wrap(err, "recording reminder log entry")
	}
	return nil
}

func (repo *reminderLedger) QueryEntriesByTeacher(ctx context.Context, teacherID, referenceMonth string) ([]reminder.LogEntry, error) {
	q := `SELECT * FROM reminder_log WHERE teacher_id = ?`
	args := []interface{}{teacherID}
	if referenceMonth != "" {
		q += ` AND reference_month = ?`
		args = append(args, referenceMonth)
	}
	q += ` ORDER BY sent_at DESC`

	var rows []logEntryRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying reminder log")
	}
	entries := make([]reminder.LogEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].entry())
	}
	return entries, nil
}

type policyRow struct {
	TeacherID       string    `db:"teacher_id"`
	Enabled         bool      `db:"enabled"`
	AutoSendEnabled bool      `db:"auto_send_enabled"`
	LeadDays        int       `db:"lead_days"`
	MessageTemplate string    `db:"message_template"`
	AccountSID      string    `db:"account_sid"`
	AuthToken       string    `db:"auth_token"`
	FromNumber      string    `db:"from_number"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *policyRow) policy() reminder.Policy {
	return reminder.Policy{
		TeacherID:       r.TeacherID,
		Enabled:         r.Enabled,
		AutoSendEnabled: r.AutoSendEnabled,
		LeadDays:        r.LeadDays,
		MessageTemplate: r.MessageTemplate,
		AccountSID:      r.AccountSID,
		AuthToken:       r.AuthToken,
		FromNumber:      r.FromNumber,
		UpdatedAt:       r.UpdatedAt,
	}
}

type policyRepository struct {
	db *sqlx.DB
}

var _ reminder.PolicyRepository = (*policyRepository)(nil) // interface compliance check

func NewPolicyRepository(db *sqlx.DB) *policyRepository {
	return &policyRepository{db: db}
}

func (repo *policyRepository) GetPolicyByTeacher(ctx context.Context, teacherID string) (reminder.Policy, error) {
	var row policyRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM reminder_policy WHERE teacher_id = $1`, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return reminder.Policy{}, reminder.ErrPolicyNotFound
		}
		return reminder.Policy{}, errors.Wrap(err, "getting reminder policy")
	}
	return row.policy(), nil
}

func (repo *policyRepository) UpsertPolicy(ctx context.Context, pol reminder.Policy) (reminder.Policy, error) {
	row := policyRow{
		TeacherID:       pol.TeacherID,
		Enabled:         pol.Enabled,
		AutoSendEnabled: pol.AutoSendEnabled,
		LeadDays:        pol.LeadDays,
		MessageTemplate: pol.MessageTemplate,
		AccountSID:      pol.AccountSID,
		AuthToken:       pol.AuthToken,
		FromNumber:      pol.FromNumber,
		UpdatedAt:       pol.UpdatedAt.UTC(),
	}

	q := `
		INSERT INTO reminder_policy (teacher_id, enabled, auto_send_enabled, lead_days, message_template, account_sid, auth_token, from_number, updated_at)
		VALUES (:teacher_id, :enabled, :auto_send_enabled, :lead_days, :message_template, :account_sid, :auth_token, :from_number, :updated_at)
		ON CONFLICT (teacher_id) DO UPDATE
		SET enabled = EXCLUDED.enabled, auto_send_enabled = EXCLUDED.auto_send_enabled,
		    lead_days = EXCLUDED.lead_days, message_template = EXCLUDED.message_template,
		    account_sid = EXCLUDED.account_sid, auth_token = EXCLUDED.auth_token,
		    from_number = EXCLUDED.from_number, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, &row); err != nil {
		return reminder.Policy{}, errors.Wrap(err, "upserting reminder policy")
	}
	return pol, nil
}

package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Delivery statuses
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

var ErrDuplicateEntry = errors.New("a reminder was already logged for this student and month")

// LogEntry records one reminder attempt. Entries are append-only: the engine
// never mutates or deletes them, and at most one exists per
// (teacher, student, reference month) triple.
type LogEntry struct {
	TeacherID        string          `json:"teacher_id"`
	StudentID        string          `json:"student_id"`
	ReferenceMonth   string          `json:"reference_month"`
	SentAt           time.Time       `json:"sent_at"` // UTC
	ChannelMessageID string          `json:"channel_message_id,omitempty"`
	DeliveryStatus   string          `json:"delivery_status"`
	ErrorDetail      string          `json:"error_detail,omitempty"`
	AmountAtSend     decimal.Decimal `json:"amount_at_send"`
	DueDayAtSend     int             `json:"due_day_at_send"`
}

// Ledger is the monthly deduplication log of reminder attempts.
type Ledger interface {
	// HasBeenSent reports whether an entry exists for the triple, regardless
	// of its delivery status. A failed attempt still counts.
	HasBeenSent(ctx context.Context, teacherID, studentID, referenceMonth string) (bool, error)
	// Record appends a new entry; returns ErrDuplicateEntry when the triple
	// already exists. Callers are expected to check HasBeenSent first since
	// the two calls are not atomic.
	Record(ctx context.Context, entry LogEntry) error
	// QueryEntriesByTeacher returns the teacher's entries, optionally
	// restricted to one reference month.
	QueryEntriesByTeacher(ctx context.Context, teacherID, referenceMonth string) ([]LogEntry, error)
}

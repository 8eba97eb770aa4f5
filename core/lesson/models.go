package lesson

import (
	"time"

	"github.com/proclass/backend/core"
)

// Statuses
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var AllStatuses = []string{StatusScheduled, StatusCompleted, StatusCancelled}

type Lesson struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	StudentID   string    `json:"student_id"`
	Subject     string    `json:"subject,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	DurationMin int       `json:"duration_min"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewLesson contains information needed to schedule a new Lesson.
type NewLesson struct {
	StudentID   string    `json:"student_id" validate:"required,uuid4"`
	Subject     string    `json:"subject"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	DurationMin int       `json:"duration_min" validate:"omitempty,min=1,max=480"`
	Notes       string    `json:"notes"`
}

func (nl *NewLesson) Validate() error {
	nl.Subject = core.CleanString(nl.Subject)
	nl.Notes = core.CleanString(nl.Notes)
	if nl.DurationMin == 0 {
		nl.DurationMin = 60
	}
	return core.Validate.Struct(nl)
}

// UpdateLesson defines what information may be provided to modify an existing Lesson.
type UpdateLesson struct {
	Subject     *string    `json:"subject"`
	StartsAt    *time.Time `json:"starts_at"`
	DurationMin *int       `json:"duration_min" validate:"omitempty,min=1,max=480"`
	Status      string     `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	Notes       *string    `json:"notes"`
}

func (ul *UpdateLesson) Validate() error {
	return core.Validate.Struct(ul)
}

// Merge applies the update on top of orig and returns the resulting Lesson.
func (ul *UpdateLesson) Merge(orig Lesson) Lesson {
	l := orig
	if ul.Subject != nil {
		l.Subject = core.CleanString(*ul.Subject)
	}
	if ul.StartsAt != nil {
		l.StartsAt = *ul.StartsAt
	}
	if ul.DurationMin != nil {
		l.DurationMin = *ul.DurationMin
	}
	if ul.Status != "" {
		l.Status = ul.Status
	}
	if ul.Notes != nil {
		l.Notes = core.CleanString(*ul.Notes)
	}
	l.UpdatedAt = time.Now().UTC()
	return l
}

type QueryFilter struct {
	StudentID string    `query:"student_id"`
	Status    string    `query:"status"`
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Status == "" && qf.From.IsZero() && qf.To.IsZero()
}

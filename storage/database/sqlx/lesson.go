package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/proclass/backend/core/lesson"
)

type lessonRow struct {
	ID          string    `db:"id"`
	TeacherID   string    `db:"teacher_id"`
	StudentID   string    `db:"student_id"`
	Subject     string    `db:"subject"`
	StartsAt    time.Time `db:"starts_at"`
	DurationMin int       `db:"duration_min"`
	Status      string    `db:"status"`
	Notes       string    `db:"notes"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *lessonRow) from(lsn lesson.Lesson) {
	r.ID = lsn.ID
	r.TeacherID = lsn.TeacherID
	r.StudentID = lsn.StudentID
	r.Subject = lsn.Subject
	r.StartsAt = lsn.StartsAt.UTC()
	r.DurationMin = lsn.DurationMin
	r.Status = lsn.Status
	r.Notes = lsn.Notes
	r.CreatedAt = lsn.CreatedAt.UTC()
	r.UpdatedAt = lsn.UpdatedAt.UTC()
}

func (r *lessonRow) lesson() lesson.Lesson {
	return lesson.Lesson{
		ID:          r.ID,
		TeacherID:   r.TeacherID,
		StudentID:   r.StudentID,
		Subject:     r.Subject,
		StartsAt:    r.StartsAt,
		DurationMin: r.DurationMin,
		Status:      r.Status,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type lessonRepository struct {
	db *sqlx.DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sqlx.DB) *lessonRepository {
	return &lessonRepository{db: db}
}

func (repo *lessonRepository) CreateLesson(ctx context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	var row lessonRow
	row.from(lsn)

	q := `
		INSERT INTO lesson (id, teacher_id, student_id, subject, starts_at, duration_min, status, notes, created_at, updated_at)
		VALUES (:id, :teacher_id, :student_id, :subject, :starts_at, :duration_min, :status, :notes, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, &row); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "creating lesson")
	}
	return lsn, nil
}

func (repo *lessonRepository) GetLessonByID(ctx context.Context, id string) (lesson.Lesson, error) {
	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM lesson WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return lesson.Lesson{}, lesson.ErrNotFound
		}
		return lesson.Lesson{}, errors.Wrap(err, "getting lesson")
	}
	return row.lesson(), nil
}

func (repo *lessonRepository) FilterLessons(ctx context.Context, teacherID string, filter lesson.QueryFilter) ([]lesson.Lesson, error) {
	q := `SELECT * FROM lesson WHERE teacher_id = ?`
	args := []interface{}{teacherID}

	if filter.StudentID != "" {
		q += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		q += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		q += ` AND starts_at >= ?`
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		q += ` AND starts_at <= ?`
		args = append(args, filter.To)
	}
	q += ` ORDER BY starts_at`

	var rows []lessonRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "filtering lessons")
	}
	lessons := make([]lesson.Lesson, 0, len(rows))
	for i := range rows {
		lessons = append(lessons, rows[i].lesson())
	}
	return lessons, nil
}

func (repo *lessonRepository) UpdateLesson(ctx context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	var row lessonRow
	row.from(lsn)

	q := `
		UPDATE lesson
		SET subject = :subject, starts_at = :starts_at, duration_min = :duration_min,
		    status = :status, notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, &row)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	return lsn, nil
}

func (repo *lessonRepository) DeleteLessonsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM lesson WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting lessons")
	}
	return nil
}

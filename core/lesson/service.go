package lesson

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("lesson not found")

type (
	Repository interface {
		CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		GetLessonByID(ctx context.Context, id string) (Lesson, error)
		// FilterLessons applies AND operation on available QueryFilter fields;
		// an empty filter returns every lesson belonging to the teacher.
		FilterLessons(ctx context.Context, teacherID string, filter QueryFilter) ([]Lesson, error)
		UpdateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		DeleteLessonsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, teacherID string, nl NewLesson) (Lesson, error) {
	now := time.Now().UTC()
	lsn := Lesson{
		ID:          uuid.New().String(),
		TeacherID:   teacherID,
		StudentID:   nl.StudentID,
		Subject:     nl.Subject,
		StartsAt:    nl.StartsAt.UTC(),
		DurationMin: nl.DurationMin,
		Status:      StatusScheduled,
		Notes:       nl.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateLesson(ctx, lsn)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, teacherID string, filter QueryFilter) ([]Lesson, error) {
	return svc.repo.FilterLessons(ctx, teacherID, filter)
}

func (svc *Service) Update(ctx context.Context, orig Lesson, ul UpdateLesson) (Lesson, error) {
	return svc.repo.UpdateLesson(ctx, ul.Merge(orig))
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteLessonsByID(ctx, ids...)
}

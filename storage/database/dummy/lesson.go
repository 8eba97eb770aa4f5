package dummydb

import (
	"context"

	"github.com/proclass/backend/core/lesson"
)

type lessonRepository struct {
	db *lessonTable
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *DB) lesson.Repository {
	return &lessonRepository{db: db.lesson}
}

func (repo *lessonRepository) CreateLesson(_ context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *lessonRepository) GetLessonByID(_ context.Context, id string) (lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lsn, ok := repo.db.table[id]; ok {
		return *lsn, nil
	}
	return lesson.Lesson{}, lesson.ErrNotFound
}

func (repo *lessonRepository) FilterLessons(_ context.Context, teacherID string, filter lesson.QueryFilter) ([]lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := make([]lesson.Lesson, 0)
	for _, l := range repo.db.table {
		if l.TeacherID != teacherID {
			continue
		}
		if filter.StudentID != "" && l.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && l.StartsAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && l.StartsAt.After(filter.To) {
			continue
		}
		lessons = append(lessons, *l)
	}
	return lessons, nil
}

func (repo *lessonRepository) UpdateLesson(_ context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[lsn.ID]; !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	repo.db.table[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *lessonRepository) DeleteLessonsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

package dummydb

import (
	"context"
	"strings"

	"github.com/proclass/backend/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) queryByTeacher(teacherID string) []student.Student {
	students := make([]student.Student, 0)
	for _, s := range repo.db.student.table {
		if s.TeacherID == teacherID {
			students = append(students, *s)
		}
	}
	return students
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	repo.db.student.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	if std, ok := repo.db.student.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudentsByTeacher(_ context.Context, teacherID string) ([]student.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()
	return repo.queryByTeacher(teacherID), nil
}

func (repo *studentRepository) FilterStudents(_ context.Context, teacherID string, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	students := repo.queryByTeacher(teacherID)

	if filter.Search != "" {
		var filtered []student.Student
		for _, s := range students {
			if strings.Contains(strings.ToLower(s.Name), strings.ToLower(filter.Search)) ||
				strings.Contains(s.Phone, filter.Search) {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}

	if filter.Status != "" {
		var filtered []student.Student
		for _, s := range students {
			if s.Status == filter.Status {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}

	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	if _, ok := repo.db.student.table[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.student.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	for _, id := range ids {
		delete(repo.db.student.table, id)

		// cascade to the student's payments and lessons
		repo.db.payment.Lock()
		for pid, p := range repo.db.payment.table {
			if p.StudentID == id {
				delete(repo.db.payment.table, pid)
			}
		}
		repo.db.payment.Unlock()

		repo.db.lesson.Lock()
		for lid, l := range repo.db.lesson.table {
			if l.StudentID == id {
				delete(repo.db.lesson.table, lid)
			}
		}
		repo.db.lesson.Unlock()
	}
	return nil
}

package dummydb

import (
	"sync"

	"github.com/proclass/backend/core/lesson"
	"github.com/proclass/backend/core/payment"
	"github.com/proclass/backend/core/reminder"
	"github.com/proclass/backend/core/student"
	"github.com/proclass/backend/core/user"
)

type (
	DB struct {
		user        *userTable
		student     *studentTable
		payment     *paymentTable
		lesson      *lessonTable
		reminderLog *reminderLogTable
		policy      *policyTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	paymentTable struct {
		sync.RWMutex
		table map[string]*payment.Payment
	}

	lessonTable struct {
		sync.RWMutex
		table map[string]*lesson.Lesson
	}

	// reminderLogTable is keyed by the (teacher, student, month) triple.
	reminderLogTable struct {
		sync.RWMutex
		table map[tripleKey]*reminder.LogEntry
	}

	tripleKey struct {
		teacherID      string
		studentID      string
		referenceMonth string
	}

	policyTable struct {
		sync.RWMutex
		table map[string]*reminder.Policy // keyed by teacherID
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		student:     &studentTable{table: make(map[string]*student.Student)},
		payment:     &paymentTable{table: make(map[string]*payment.Payment)},
		lesson:      &lessonTable{table: make(map[string]*lesson.Lesson)},
		reminderLog: &reminderLogTable{table: make(map[tripleKey]*reminder.LogEntry)},
		policy:      &policyTable{table: make(map[string]*reminder.Policy)},
	}
	return db, nil
}

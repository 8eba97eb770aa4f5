package student

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("student not found")

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// QueryStudentsByTeacher returns every student belonging to the teacher.
		// Iteration order is storage order; callers must not rely on it.
		QueryStudentsByTeacher(ctx context.Context, teacherID string) ([]Student, error)
		// FilterStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Student.Name or Student.Phone.
		FilterStudents(ctx context.Context, teacherID string, filter QueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		// DeleteStudentsByID also drops the students' payments and lessons.
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, teacherID string, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std := Student{
		ID:         uuid.New().String(),
		TeacherID:  teacherID,
		Name:       ns.Name,
		Phone:      ns.Phone,
		Status:     ns.Status,
		MonthlyFee: ns.MonthlyFee,
		PaymentDay: ns.PaymentDay,
		ChargeFee:  true,
		Notes:      ns.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if ns.ChargeFee != nil {
		std.ChargeFee = *ns.ChargeFee
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID string) ([]Student, error) {
	return svc.repo.QueryStudentsByTeacher(ctx, teacherID)
}

func (svc *Service) Filter(ctx context.Context, teacherID string, filter QueryFilter) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, teacherID, filter)
}

func (svc *Service) Update(ctx context.Context, orig Student, us UpdateStudent) (Student, error) {
	return svc.repo.UpdateStudent(ctx, us.Merge(orig))
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

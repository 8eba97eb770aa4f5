package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("payment not found")

type (
	Repository interface {
		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		GetPaymentByID(ctx context.Context, id string) (Payment, error)
		// QueryPaymentsByTeacher returns every payment recorded by the teacher.
		QueryPaymentsByTeacher(ctx context.Context, teacherID string) ([]Payment, error)
		QueryPaymentsByStudent(ctx context.Context, studentID string) ([]Payment, error)
		// FilterPayments applies AND operation on available QueryFilter fields.
		FilterPayments(ctx context.Context, teacherID string, filter QueryFilter) ([]Payment, error)
		UpdatePayment(ctx context.Context, pmt Payment) (Payment, error)
		DeletePaymentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, teacherID string, np NewPayment) (Payment, error) {
	now := time.Now().UTC()
	pmt := Payment{
		ID:             uuid.New().String(),
		StudentID:      np.StudentID,
		TeacherID:      teacherID,
		Amount:         np.Amount,
		Status:         np.Status,
		ReferenceMonth: np.ReferenceMonth,
		DueDate:        np.DueDate,
		Notes:          np.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if pmt.Status == StatusPaid {
		pmt.PaidAt = &now
	}
	return svc.repo.CreatePayment(ctx, pmt)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Payment, error) {
	return svc.repo.GetPaymentByID(ctx, id)
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID string) ([]Payment, error) {
	return svc.repo.QueryPaymentsByTeacher(ctx, teacherID)
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Payment, error) {
	return svc.repo.QueryPaymentsByStudent(ctx, studentID)
}

func (svc *Service) Filter(ctx context.Context, teacherID string, filter QueryFilter) ([]Payment, error) {
	return svc.repo.FilterPayments(ctx, teacherID, filter)
}

func (svc *Service) Update(ctx context.Context, orig Payment, up UpdatePayment) (Payment, error) {
	return svc.repo.UpdatePayment(ctx, up.Merge(orig))
}

// MarkPaid settles the payment now.
func (svc *Service) MarkPaid(ctx context.Context, orig Payment) (Payment, error) {
	now := time.Now().UTC()
	orig.Status = StatusPaid
	orig.PaidAt = &now
	orig.UpdatedAt = now
	return svc.repo.UpdatePayment(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePaymentsByID(ctx, ids...)
}

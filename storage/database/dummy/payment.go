package dummydb

import (
	"context"

	"github.com/proclass/backend/core/payment"
)

type paymentRepository struct {
	db *paymentTable
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db.payment}
}

func (repo *paymentRepository) query(match func(*payment.Payment) bool) []payment.Payment {
	payments := make([]payment.Payment, 0)
	for _, p := range repo.db.table {
		if match(p) {
			payments = append(payments, *p)
		}
	}
	return payments
}

func (repo *paymentRepository) CreatePayment(_ context.Context, pmt payment.Payment) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[pmt.ID] = &pmt
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByID(_ context.Context, id string) (payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pmt, ok := repo.db.table[id]; ok {
		return *pmt, nil
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) QueryPaymentsByTeacher(_ context.Context, teacherID string) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(func(p *payment.Payment) bool { return p.TeacherID == teacherID }), nil
}

func (repo *paymentRepository) QueryPaymentsByStudent(_ context.Context, studentID string) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(func(p *payment.Payment) bool { return p.StudentID == studentID }), nil
}

func (repo *paymentRepository) FilterPayments(_ context.Context, teacherID string, filter payment.QueryFilter) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.query(func(p *payment.Payment) bool {
		if p.TeacherID != teacherID {
			return false
		}
		if filter.StudentID != "" && p.StudentID != filter.StudentID {
			return false
		}
		if filter.Status != "" && p.Status != filter.Status {
			return false
		}
		if filter.ReferenceMonth != "" && p.ReferenceMonth != filter.ReferenceMonth {
			return false
		}
		return true
	}), nil
}

func (repo *paymentRepository) UpdatePayment(_ context.Context, pmt payment.Payment) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[pmt.ID]; !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	repo.db.table[pmt.ID] = &pmt
	return pmt, nil
}

func (repo *paymentRepository) DeletePaymentsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/proclass/backend/core/payment"
)

type paymentRow struct {
	ID             string          `db:"id"`
	StudentID      string          `db:"student_id"`
	TeacherID      string          `db:"teacher_id"`
	Amount         decimal.Decimal `db:"amount"`
	Status         string          `db:"status"`
	ReferenceMonth string          `db:"reference_month"`
	DueDate        *time.Time      `db:"due_date"`
	PaidAt         *time.Time      `db:"paid_at"`
	Notes          string          `db:"notes"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (r *paymentRow) from(pmt payment.Payment) {
	r.ID = pmt.ID
	r.StudentID = pmt.StudentID
	r.TeacherID = pmt.TeacherID
	r.Amount = pmt.Amount
	r.Status = pmt.Status
	r.ReferenceMonth = pmt.ReferenceMonth
	r.DueDate = pmt.DueDate
	r.PaidAt = pmt.PaidAt
	r.Notes = pmt.Notes
	r.CreatedAt = pmt.CreatedAt.UTC()
	r.UpdatedAt = pmt.UpdatedAt.UTC()
}

func (r *paymentRow) payment() payment.Payment {
	return payment.Payment{
		ID:             r.ID,
		StudentID:      r.StudentID,
		TeacherID:      r.TeacherID,
		Amount:         r.Amount,
		Status:         r.Status,
		ReferenceMonth: r.ReferenceMonth,
		DueDate:        r.DueDate,
		PaidAt:         r.PaidAt,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func payments(rows []paymentRow) []payment.Payment {
	pmts := make([]payment.Payment, 0, len(rows))
	for i := range rows {
		pmts = append(pmts, rows[i].payment())
	}
	return pmts
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	var row paymentRow
	row.from(pmt)

	q := `
		INSERT INTO payment (id, student_id, teacher_id, amount, status, reference_month, due_date, paid_at, notes, created_at, updated_at)
		VALUES (:id, :student_id, :teacher_id, :amount, :status, :reference_month, :due_date, :paid_at, :notes, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, &row); err != nil {
		return payment.Payment{}, errors.Wrap(err, "creating payment")
	}
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByID(ctx context.Context, id string) (payment.Payment, error) {
	var row paymentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM payment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return payment.Payment{}, payment.ErrNotFound
		}
		return payment.Payment{}, errors.Wrap(err, "getting payment")
	}
	return row.payment(), nil
}

func (repo *paymentRepository) QueryPaymentsByTeacher(ctx context.Context, teacherID string) ([]payment.Payment, error) {
	var rows []paymentRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM payment WHERE teacher_id = $1`, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments(rows), nil
}

func (repo *paymentRepository) QueryPaymentsByStudent(ctx context.Context, studentID string) ([]payment.Payment, error) {
	var rows []paymentRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM payment WHERE student_id = $1`, studentID); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments(rows), nil
}

func (repo *paymentRepository) FilterPayments(ctx context.Context, teacherID string, filter payment.QueryFilter) ([]payment.Payment, error) {
	q := `SELECT * FROM payment WHERE teacher_id = ?`
	args := []interface{}{teacherID}

	if filter.StudentID != "" {
		q += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		q += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.ReferenceMonth != "" {
		q += ` AND reference_month = ?`
		args = append(args, filter.ReferenceMonth)
	}

	var rows []paymentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "filtering payments")
	}
	return payments(rows), nil
}

func (repo *paymentRepository) UpdatePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	var row paymentRow
	row.from(pmt)

	q := `
		UPDATE payment
		SET amount = :amount, status = :status, reference_month = :reference_month,
		    due_date = :due_date, paid_at = :paid_at, notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, &row)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "updating payment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return payment.Payment{}, payment.ErrNotFound
	}
	return pmt, nil
}

func (repo *paymentRepository) DeletePaymentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM payment WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting payments")
	}
	return nil
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/proclass/backend/core/student"
)

type studentRow struct {
	ID         string              `db:"id"`
	TeacherID  string              `db:"teacher_id"`
	Name       string              `db:"name"`
	Phone      sql.NullString      `db:"phone"`
	Status     string              `db:"status"`
	MonthlyFee decimal.NullDecimal `db:"monthly_fee"`
	PaymentDay *int                `db:"payment_day"`
	ChargeFee  bool                `db:"charge_fee"`
	Notes      string              `db:"notes"`
	CreatedAt  time.Time           `db:"created_at"`
	UpdatedAt  time.Time           `db:"updated_at"`
}

func (r *studentRow) from(std student.Student) {
	r.ID = std.ID
	r.TeacherID = std.TeacherID
	r.Name = std.Name
	r.Phone = nullStr(std.Phone)
	r.Status = std.Status
	if std.MonthlyFee != nil {
		r.MonthlyFee = decimal.NullDecimal{Decimal: *std.MonthlyFee, Valid: true}
	}
	r.PaymentDay = std.PaymentDay
	r.ChargeFee = std.ChargeFee
	r.Notes = std.Notes
	r.CreatedAt = std.CreatedAt.UTC()
	r.UpdatedAt = std.UpdatedAt.UTC()
}

func (r *studentRow) student() student.Student {
	std := student.Student{
		ID:         r.ID,
		TeacherID:  r.TeacherID,
		Name:       r.Name,
		Phone:      r.Phone.String,
		Status:     r.Status,
		PaymentDay: r.PaymentDay,
		ChargeFee:  r.ChargeFee,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.MonthlyFee.Valid {
		fee := r.MonthlyFee.Decimal
		std.MonthlyFee = &fee
	}
	return std
}

func students(rows []studentRow) []student.Student {
	stds := make([]student.Student, 0, len(rows))
	for i := range rows {
		stds = append(stds, rows[i].student())
	}
	return stds
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	var row studentRow
	row.from(std)

	q := `
		INSERT INTO student (id, teacher_id, name, phone, status, monthly_fee, payment_day, charge_fee, notes, created_at, updated_at)
		VALUES (:id, :teacher_id, :name, :phone, :status, :monthly_fee, :payment_day, :charge_fee, :notes, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, &row); err != nil {
		return student.Student{}, errors.Wrap(err, "creating student")
	}
	return std, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.student(), nil
}

func (repo *studentRepository) QueryStudentsByTeacher(ctx context.Context, teacherID string) ([]student.Student, error) {
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM student WHERE teacher_id = $1`, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students(rows), nil
}

func (repo *studentRepository) FilterStudents(ctx context.Context, teacherID string, filter student.QueryFilter) ([]student.Student, error) {
	q := `SELECT * FROM student WHERE teacher_id = ?`
	args := []interface{}{teacherID}

	if filter.Search != "" {
		q += ` AND (name ILIKE ? OR phone LIKE ?)`
		pattern := "%" + escapeLike(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Status != "" {
		q += ` AND status = ?`
		args = append(args, filter.Status)
	}

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "filtering students")
	}
	return students(rows), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	var row studentRow
	row.from(std)

	q := `
		UPDATE student
		SET name = :name, phone = :phone, status = :status, monthly_fee = :monthly_fee,
		    payment_day = :payment_day, charge_fee = :charge_fee, notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, &row)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	// payments and lessons go with the student via ON DELETE CASCADE
	q, args, err := sqlx.In(`DELETE FROM student WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/smartattendai/smart-attendance/internal/database"
	"github.com/smartattendai/smart-attendance/internal/recognize"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// StudentRepository provides PostgreSQL-backed roster access.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = "code, name, birth_date, gender, class_name, faculty, email, status"

func scanStudents(rows *sql.Rows) ([]database.Student, error) {
	var students []database.Student
	for rows.Next() {
		var (
			s                               database.Student
			gender, class, faculty, email   sql.NullString
		)
		if err := rows.Scan(&s.Code, &s.Name, &s.BirthDate, &gender, &class, &faculty, &email, &s.Status); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		s.Gender = gender.String
		s.Class = class.String
		s.Faculty = faculty.String
		s.Email = email.String
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// List returns all students ordered by code.
func (r *StudentRepository) List(ctx context.Context) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+studentColumns+" FROM students ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// Get retrieves one student by code, nil if not found.
func (r *StudentRepository) Get(ctx context.Context, code string) (*database.Student, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+studentColumns+" FROM students WHERE code = $1", code)
	if err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	defer rows.Close()

	students, err := scanStudents(rows)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, nil
	}
	return &students[0], nil
}

// Search finds students whose name contains the query, comparing without
// case or diacritics so "tran binh" matches "Trần Văn Bình". The roster is
// classroom-scale, so the comparison runs in Go over the full list.
func (r *StudentRepository) Search(ctx context.Context, query string) ([]database.Student, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	needle := recognize.NormalizeStudentName(query)
	if needle == "" {
		return all, nil
	}

	var matched []database.Student
	for _, s := range all {
		if strings.Contains(recognize.NormalizeStudentName(s.Name), needle) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// Create inserts a new student; database.ErrStudentExists on a duplicate code.
func (r *StudentRepository) Create(ctx context.Context, s database.Student) error {
	status := s.Status
	if status == "" {
		status = "active"
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO students (code, name, birth_date, gender, class_name, faculty, email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.Code, s.Name, s.BirthDate, s.Gender, s.Class, s.Faculty, s.Email, status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return database.ErrStudentExists
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type studentRepository struct {
	db *database.DB
}

func NewStudentRepository(db *database.DB) student.StudentRepository {
	return &studentRepository{db: db}
}

// ListByClass implements student.StudentRepository.
func (r *studentRepository) ListByClass(ctx context.Context, class string) ([]student.Student, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id::text, name, roll_no, class, created_at, updated_at
		FROM students
		WHERE class = $1
		ORDER BY roll_no COLLATE roll_numeric ASC, roll_no ASC, id ASC
	`

	rows, err := q.Query(ctx, query, class)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	students := []student.Student{}
	for rows.Next() {
		var s student.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNo, &s.Class, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	return students, nil
}

// GetByID implements student.StudentRepository.
func (r *studentRepository) GetByID(ctx context.Context, id string) (student.Student, error) {
	if !validator.IsValidUUID(id) {
		return student.Student{}, student.ErrStudentNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id::text, name, roll_no, class, created_at, updated_at
		FROM students
		WHERE id = $1::uuid
	`

	var s student.Student
	err := q.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.RollNo, &s.Class, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return student.Student{}, student.ErrStudentNotFound
		}
		return student.Student{}, fmt.Errorf("failed to get student: %w", err)
	}

	return s, nil
}

// Create implements student.StudentRepository.
func (r *studentRepository) Create(ctx context.Context, s student.Student) (student.Student, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO students (name, roll_no, class)
		VALUES ($1, $2, $3)
		RETURNING id::text, created_at, updated_at
	`

	err := q.QueryRow(ctx, query, s.Name, s.RollNo, s.Class).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return student.Student{}, student.ErrRollNoExists
		}
		return student.Student{}, fmt.Errorf("failed to create student: %w", err)
	}

	return s, nil
}

// FilterInClass implements student.StudentRepository.
func (r *studentRepository) FilterInClass(ctx context.Context, class string, ids []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(ids))

	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validator.IsValidUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return found, nil
	}

	q := GetQuerier(ctx, r.db)
	query := `
		SELECT id::text
		FROM students
		WHERE class = $1
		  AND id = ANY($2::text[]::uuid[])
	`

	rows, err := q.Query(ctx, query, class, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to filter students: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan student id: %w", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate student ids: %w", err)
	}

	return found, nil
}

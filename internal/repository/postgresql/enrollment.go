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

const foreignKeyViolation = "23503"

type enrollmentRepository struct {
	db *database.DB
}

func NewEnrollmentRepository(db *database.DB) student.EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Upsert implements student.EnrollmentRepository.
func (r *enrollmentRepository) Upsert(ctx context.Context, e student.Enrollment) (student.Enrollment, error) {
	if !validator.IsValidUUID(e.StudentID) {
		return student.Enrollment{}, student.ErrStudentNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO student_enrolled_subjects (student_id, subjects, updated_at)
		VALUES ($1::uuid, $2, NOW())
		ON CONFLICT (student_id)
		DO UPDATE SET subjects = EXCLUDED.subjects, updated_at = NOW()
		RETURNING id::text, student_id::text, subjects, updated_at
	`

	var out student.Enrollment
	err := q.QueryRow(ctx, query, e.StudentID, e.Subjects).Scan(&out.ID, &out.StudentID, &out.Subjects, &out.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return student.Enrollment{}, student.ErrStudentNotFound
		}
		return student.Enrollment{}, fmt.Errorf("failed to upsert enrollment: %w", err)
	}

	return out, nil
}

// GetByStudentID implements student.EnrollmentRepository.
func (r *enrollmentRepository) GetByStudentID(ctx context.Context, studentID string) (student.Enrollment, error) {
	if !validator.IsValidUUID(studentID) {
		return student.Enrollment{}, student.ErrEnrollmentNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id::text, student_id::text, subjects, updated_at
		FROM student_enrolled_subjects
		WHERE student_id = $1::uuid
	`

	var out student.Enrollment
	err := q.QueryRow(ctx, query, studentID).Scan(&out.ID, &out.StudentID, &out.Subjects, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return student.Enrollment{}, student.ErrEnrollmentNotFound
		}
		return student.Enrollment{}, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return out, nil
}

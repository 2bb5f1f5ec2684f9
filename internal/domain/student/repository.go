package student

import "context"

// StudentRepository defines data access methods for the class roster.
type StudentRepository interface {
	// ListByClass returns the students of a class ordered by roll number
	ListByClass(ctx context.Context, class string) ([]Student, error)

	// GetByID retrieves a single student
	GetByID(ctx context.Context, id string) (Student, error)

	// Create adds a student to a class
	Create(ctx context.Context, s Student) (Student, error)

	// FilterInClass returns the subset of ids that belong to class
	FilterInClass(ctx context.Context, class string, ids []string) (map[string]struct{}, error)
}

// EnrollmentRepository stores the subjects a student is enrolled in.
type EnrollmentRepository interface {
	Upsert(ctx context.Context, e Enrollment) (Enrollment, error)
	GetByStudentID(ctx context.Context, studentID string) (Enrollment, error)
}

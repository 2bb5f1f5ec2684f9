package student

import "context"

// StudentService serves the roster and subject enrollments
type StudentService interface {
	// GetStudents returns the roster of a class
	GetStudents(ctx context.Context, req GetStudentsRequest) (GetStudentsResponse, error)

	// CreateStudent adds a student to a class
	CreateStudent(ctx context.Context, req CreateStudentRequest) (StudentResponse, error)

	// Enroll replaces the subject list of a student
	Enroll(ctx context.Context, req EnrollRequest) (EnrollmentResponse, error)

	// GetEnrollment returns the subject list of a student
	GetEnrollment(ctx context.Context, studentID string) (EnrollmentResponse, error)
}

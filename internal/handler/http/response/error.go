package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing token")
	case errors.Is(err, jwt.ErrTeacherRoleRequired):
		Forbidden(w, "Teacher access required")

	// Student domain errors
	case errors.Is(err, student.ErrStudentNotFound):
		NotFound(w, "Student not found")
	case errors.Is(err, student.ErrEnrollmentNotFound):
		NotFound(w, "Enrollment not found")
	case errors.Is(err, student.ErrRollNoExists):
		Conflict(w, "Roll number already exists in this class")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrEmptyBatch):
		Unprocessable(w, "Attendance batch has no records")
	case errors.Is(err, attendance.ErrUnknownStudent):
		Unprocessable(w, err.Error())
	case errors.Is(err, attendance.ErrDuplicateStudent):
		Unprocessable(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

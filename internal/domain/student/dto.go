package student

import (
	"strings"

	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
)

// ========================================
// ROSTER DTOs
// ========================================

type GetStudentsRequest struct {
	Class string `json:"class"`
}

func (r *GetStudentsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Class) {
		errs = append(errs, validator.ValidationError{
			Field:   "class",
			Message: "class is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// StudentResponse keeps the field names the attendance frontend reads.
type StudentResponse struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	RollNo string `json:"roll_no"`
}

type GetStudentsResponse struct {
	StudentList []StudentResponse `json:"studentList"`
}

type CreateStudentRequest struct {
	Name   string `json:"name"`
	RollNo string `json:"roll_no"`
	Class  string `json:"class"`
}

func (r *CreateStudentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if validator.IsEmpty(r.RollNo) {
		errs = append(errs, validator.ValidationError{Field: "roll_no", Message: "roll_no is required"})
	}
	if validator.IsEmpty(r.Class) {
		errs = append(errs, validator.ValidationError{Field: "class", Message: "class is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// ENROLLMENT DTOs
// ========================================

type EnrollRequest struct {
	StudentID string   `json:"studentId"`
	Subjects  []string `json:"subjects"`
}

func (r *EnrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.StudentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "studentId",
			Message: "studentId is required",
		})
	}

	if len(r.Subjects) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "subjects",
			Message: "at least one subject is required",
		})
	}
	for _, s := range r.Subjects {
		if validator.IsEmpty(s) {
			errs = append(errs, validator.ValidationError{
				Field:   "subjects",
				Message: "subject names must not be empty",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Normalize trims subject names and drops duplicates, keeping first-seen order.
func (r *EnrollRequest) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
	seen := make(map[string]struct{}, len(r.Subjects))
	subjects := make([]string, 0, len(r.Subjects))
	for _, s := range r.Subjects {
		s = strings.TrimSpace(s)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		subjects = append(subjects, s)
	}
	r.Subjects = subjects
}

type EnrollmentResponse struct {
	StudentID string   `json:"studentId"`
	Subjects  []string `json:"subjects"`
	UpdatedAt string   `json:"updatedAt"`
}

package attendance

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type AttendanceItem struct {
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	IsPresent bool   `json:"isPresent"`
}

type AddAttendanceRequest struct {
	ClassID    string           `json:"classId"`
	Attendance []AttendanceItem `json:"attendance"`
}

func (r *AddAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ClassID) {
		errs = append(errs, validator.ValidationError{
			Field:   "classId",
			Message: "classId is required",
		})
	}

	if len(r.Attendance) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance",
			Message: "attendance must contain at least one entry",
		})
	}

	for i, item := range r.Attendance {
		if validator.IsEmpty(item.StudentID) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("attendance[%d].studentId", i),
				Message: "studentId is required",
			})
		}
		if _, ok := validator.IsValidDate(item.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("attendance[%d].date", i),
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AddAttendanceResponse struct {
	BatchID  string `json:"batchId"`
	ClassID  string `json:"classId"`
	Recorded int    `json:"recorded"`
	Present  int    `json:"present"`
	Absent   int    `json:"absent"`
}

type AttendanceFilter struct {
	ClassID string
	Date    string
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(f.ClassID) {
		errs = append(errs, validator.ValidationError{
			Field:   "class",
			Message: "class is required",
		})
	}
	if _, ok := validator.IsValidDate(strings.TrimSpace(f.Date)); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecordResponse struct {
	ID        string `json:"id"`
	BatchID   string `json:"batchId"`
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	IsPresent bool   `json:"isPresent"`
	CreatedAt string `json:"createdAt"`
}

type ListAttendanceResponse struct {
	ClassID string           `json:"classId"`
	Date    string           `json:"date"`
	Records []RecordResponse `json:"records"`
}

// BatchRecordedEvent is published to live subscribers of a class
type BatchRecordedEvent struct {
	BatchID  string `json:"batchId"`
	ClassID  string `json:"classId"`
	Recorded int    `json:"recorded"`
	Present  int    `json:"present"`
}

package student

import "errors"

// Student domain errors
var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrRollNoExists       = errors.New("roll number already exists in this class")
)

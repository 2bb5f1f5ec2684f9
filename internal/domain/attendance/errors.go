package attendance

import "errors"

// Attendance domain errors
var (
	ErrEmptyBatch       = errors.New("attendance batch has no records")
	ErrUnknownStudent   = errors.New("attendance references a student outside the class")
	ErrDuplicateStudent = errors.New("attendance lists the same student twice for one date")
)

package attendance

import (
	"time"
)

// Record is one stored present/absent decision for a student on a date.
// Records that share a BatchID were submitted together.
type Record struct {
	ID        string
	BatchID   string
	ClassID   string
	StudentID string
	Date      time.Time
	IsPresent bool
	CreatedAt time.Time
}

// Batch is the unit the attendance store accepts from a teacher.
type Batch struct {
	ID      string
	ClassID string
	Records []Record
}

package student

import "time"

type Student struct {
	ID        string
	Name      string
	RollNo    string
	Class     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Enrollment maps a student to the subjects they are enrolled in.
type Enrollment struct {
	ID        string
	StudentID string
	Subjects  []string
	UpdatedAt time.Time
}

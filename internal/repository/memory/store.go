package memory

import (
	"sync"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
)

// Store is a process-local database. Data is lost on restart.
type Store struct {
	mu          sync.RWMutex
	students    map[string]student.Student
	enrollments map[string]student.Enrollment
	attendance  []attendance.Record
}

func NewStore() *Store {
	return &Store{
		students:    make(map[string]student.Student),
		enrollments: make(map[string]student.Enrollment),
	}
}

package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/google/uuid"
)

type enrollmentRepository struct {
	store *Store
}

func NewEnrollmentRepository(store *Store) student.EnrollmentRepository {
	return &enrollmentRepository{store: store}
}

// Upsert implements student.EnrollmentRepository.
func (r *enrollmentRepository) Upsert(_ context.Context, e student.Enrollment) (student.Enrollment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.students[e.StudentID]; !ok {
		return student.Enrollment{}, student.ErrStudentNotFound
	}

	if existing, ok := r.store.enrollments[e.StudentID]; ok {
		e.ID = existing.ID
	} else {
		e.ID = uuid.NewString()
	}
	e.Subjects = append([]string(nil), e.Subjects...)
	e.UpdatedAt = time.Now().UTC()
	r.store.enrollments[e.StudentID] = e
	return e, nil
}

// GetByStudentID implements student.EnrollmentRepository.
func (r *enrollmentRepository) GetByStudentID(_ context.Context, studentID string) (student.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.enrollments[studentID]
	if !ok {
		return student.Enrollment{}, student.ErrEnrollmentNotFound
	}
	e.Subjects = append([]string(nil), e.Subjects...)
	return e, nil
}

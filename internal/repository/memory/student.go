package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type studentRepository struct {
	store *Store
}

func NewStudentRepository(store *Store) student.StudentRepository {
	return &studentRepository{store: store}
}

// ListByClass implements student.StudentRepository.
func (r *studentRepository) ListByClass(_ context.Context, class string) ([]student.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	students := []student.Student{}
	for _, s := range r.store.students {
		if s.Class == class {
			students = append(students, s)
		}
	}
	// digit runs compare by value ("2" before "10"), as in the database backends
	byRoll := collate.New(language.English, collate.Numeric)
	sort.Slice(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if c := byRoll.CompareString(a.RollNo, b.RollNo); c != 0 {
			return c < 0
		}
		if a.RollNo != b.RollNo {
			return a.RollNo < b.RollNo
		}
		return a.ID < b.ID
	})
	return students, nil
}

// GetByID implements student.StudentRepository.
func (r *studentRepository) GetByID(_ context.Context, id string) (student.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.students[id]
	if !ok {
		return student.Student{}, student.ErrStudentNotFound
	}
	return s, nil
}

// Create implements student.StudentRepository.
func (r *studentRepository) Create(_ context.Context, s student.Student) (student.Student, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.students {
		if existing.Class == s.Class && existing.RollNo == s.RollNo {
			return student.Student{}, student.ErrRollNoExists
		}
	}

	if s.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return student.Student{}, err
		}
		s.ID = id.String()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.store.students[s.ID] = s
	return s, nil
}

// FilterInClass implements student.StudentRepository.
func (r *studentRepository) FilterInClass(_ context.Context, class string, ids []string) (map[string]struct{}, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	found := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if s, ok := r.store.students[id]; ok && s.Class == class {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

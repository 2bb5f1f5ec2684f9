package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
)

type StudentServiceImpl struct {
	student.StudentRepository
	student.EnrollmentRepository
}

func NewStudentService(studentRepo student.StudentRepository, enrollmentRepo student.EnrollmentRepository) student.StudentService {
	return &StudentServiceImpl{
		StudentRepository:    studentRepo,
		EnrollmentRepository: enrollmentRepo,
	}
}

// GetStudents implements student.StudentService.
func (s *StudentServiceImpl) GetStudents(ctx context.Context, req student.GetStudentsRequest) (student.GetStudentsResponse, error) {
	if err := req.Validate(); err != nil {
		return student.GetStudentsResponse{}, err
	}

	class := strings.TrimSpace(req.Class)
	students, err := s.StudentRepository.ListByClass(ctx, class)
	if err != nil {
		return student.GetStudentsResponse{}, fmt.Errorf("failed to list students for class %s: %w", class, err)
	}

	list := make([]student.StudentResponse, 0, len(students))
	for _, st := range students {
		list = append(list, student.StudentResponse{
			ID:     st.ID,
			Name:   st.Name,
			RollNo: st.RollNo,
		})
	}

	slog.Debug("Roster served", "class", class, "students", len(list))
	return student.GetStudentsResponse{StudentList: list}, nil
}

// CreateStudent implements student.StudentService.
func (s *StudentServiceImpl) CreateStudent(ctx context.Context, req student.CreateStudentRequest) (student.StudentResponse, error) {
	if err := req.Validate(); err != nil {
		return student.StudentResponse{}, err
	}

	created, err := s.StudentRepository.Create(ctx, student.Student{
		Name:   strings.TrimSpace(req.Name),
		RollNo: strings.TrimSpace(req.RollNo),
		Class:  strings.TrimSpace(req.Class),
	})
	if err != nil {
		if errors.Is(err, student.ErrRollNoExists) {
			return student.StudentResponse{}, err
		}
		return student.StudentResponse{}, fmt.Errorf("failed to create student: %w", err)
	}

	return student.StudentResponse{
		ID:     created.ID,
		Name:   created.Name,
		RollNo: created.RollNo,
	}, nil
}

// Enroll implements student.StudentService.
func (s *StudentServiceImpl) Enroll(ctx context.Context, req student.EnrollRequest) (student.EnrollmentResponse, error) {
	if err := req.Validate(); err != nil {
		return student.EnrollmentResponse{}, err
	}
	req.Normalize()

	if _, err := s.StudentRepository.GetByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return student.EnrollmentResponse{}, err
		}
		return student.EnrollmentResponse{}, fmt.Errorf("failed to get student: %w", err)
	}

	enrollment, err := s.EnrollmentRepository.Upsert(ctx, student.Enrollment{
		StudentID: req.StudentID,
		Subjects:  req.Subjects,
	})
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return student.EnrollmentResponse{}, err
		}
		return student.EnrollmentResponse{}, fmt.Errorf("failed to save enrollment: %w", err)
	}

	return toEnrollmentResponse(enrollment), nil
}

// GetEnrollment implements student.StudentService.
func (s *StudentServiceImpl) GetEnrollment(ctx context.Context, studentID string) (student.EnrollmentResponse, error) {
	enrollment, err := s.EnrollmentRepository.GetByStudentID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		if errors.Is(err, student.ErrEnrollmentNotFound) {
			return student.EnrollmentResponse{}, err
		}
		return student.EnrollmentResponse{}, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return toEnrollmentResponse(enrollment), nil
}

func toEnrollmentResponse(e student.Enrollment) student.EnrollmentResponse {
	subjects := e.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return student.EnrollmentResponse{
		StudentID: e.StudentID,
		Subjects:  subjects,
		UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

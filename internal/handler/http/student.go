package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/cmlabs-hris/school-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type StudentHandler interface {
	GetStudents(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Enroll(w http.ResponseWriter, r *http.Request)
	GetEnrollment(w http.ResponseWriter, r *http.Request)
}

type studentHandlerImpl struct {
	studentService student.StudentService
}

func NewStudentHandler(studentService student.StudentService) StudentHandler {
	return &studentHandlerImpl{
		studentService: studentService,
	}
}

// GetStudents implements StudentHandler.
// The roster is written without the response envelope; the attendance
// client reads studentList from the top level.
func (h *studentHandlerImpl) GetStudents(w http.ResponseWriter, r *http.Request) {
	var req student.GetStudentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("GetStudents decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.studentService.GetStudents(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Create implements StudentHandler.
func (h *studentHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req student.CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateStudent decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.studentService.CreateStudent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Student created", result)
}

// Enroll implements StudentHandler.
func (h *studentHandlerImpl) Enroll(w http.ResponseWriter, r *http.Request) {
	var req student.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Enroll decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.studentService.Enroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Subjects enrolled", result)
}

// GetEnrollment implements StudentHandler.
func (h *studentHandlerImpl) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	result, err := h.studentService.GetEnrollment(r.Context(), studentID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

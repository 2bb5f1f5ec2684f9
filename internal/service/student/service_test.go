package student

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/school-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudentService() student.StudentService {
	store := memory.NewStore()
	return NewStudentService(memory.NewStudentRepository(store), memory.NewEnrollmentRepository(store))
}

func TestStudentService_GetStudents_OrderedByRollNo(t *testing.T) {
	ctx := context.Background()
	svc := newStudentService()

	for _, req := range []student.CreateStudentRequest{
		{Name: "Budi", RollNo: "02", Class: "9A"},
		{Name: "Ayu", RollNo: "01", Class: "9A"},
		{Name: "Citra", RollNo: "01", Class: "9B"},
	} {
		_, err := svc.CreateStudent(ctx, req)
		require.NoError(t, err)
	}

	resp, err := svc.GetStudents(ctx, student.GetStudentsRequest{Class: " 9A "})
	require.NoError(t, err)
	require.Len(t, resp.StudentList, 2)
	assert.Equal(t, "Ayu", resp.StudentList[0].Name)
	assert.Equal(t, "01", resp.StudentList[0].RollNo)
	assert.Equal(t, "Budi", resp.StudentList[1].Name)
}

func TestStudentService_GetStudents_EmptyClassIsEmptyList(t *testing.T) {
	resp, err := newStudentService().GetStudents(context.Background(), student.GetStudentsRequest{Class: "8B"})
	require.NoError(t, err)
	assert.NotNil(t, resp.StudentList)
	assert.Empty(t, resp.StudentList)
}

func TestStudentService_GetStudents_RequiresClass(t *testing.T) {
	_, err := newStudentService().GetStudents(context.Background(), student.GetStudentsRequest{})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "class is required", verrs.ToMap()["class"])
}

func TestStudentService_CreateStudent_DuplicateRollNo(t *testing.T) {
	ctx := context.Background()
	svc := newStudentService()

	_, err := svc.CreateStudent(ctx, student.CreateStudentRequest{Name: "Ayu", RollNo: "01", Class: "9A"})
	require.NoError(t, err)
	_, err = svc.CreateStudent(ctx, student.CreateStudentRequest{Name: "Adi", RollNo: "01", Class: "9A"})

	assert.ErrorIs(t, err, student.ErrRollNoExists)
}

func TestStudentService_Enroll_NormalizesSubjects(t *testing.T) {
	ctx := context.Background()
	svc := newStudentService()

	created, err := svc.CreateStudent(ctx, student.CreateStudentRequest{Name: "Ayu", RollNo: "01", Class: "9A"})
	require.NoError(t, err)

	resp, err := svc.Enroll(ctx, student.EnrollRequest{
		StudentID: created.ID,
		Subjects:  []string{" Math", "Physics", "Math "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Math", "Physics"}, resp.Subjects)

	got, err := svc.GetEnrollment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Subjects, got.Subjects)
}

func TestStudentService_Enroll_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newStudentService()

	_, err := svc.Enroll(ctx, student.EnrollRequest{StudentID: "missing", Subjects: []string{"Math"}})
	assert.ErrorIs(t, err, student.ErrStudentNotFound)

	_, err = svc.Enroll(ctx, student.EnrollRequest{StudentID: "x", Subjects: []string{"Math", " "}})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = svc.GetEnrollment(ctx, "missing")
	assert.ErrorIs(t, err, student.ErrEnrollmentNotFound)
}

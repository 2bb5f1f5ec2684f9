package pipeline_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	httpHandler "github.com/cmlabs-hris/school-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/school-backend-go/internal/pipeline"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/school-backend-go/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/school-backend-go/internal/service/attendance"
	studentService "github.com/cmlabs-hris/school-backend-go/internal/service/student"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	url         string
	students    []student.Student
	attendances attendance.AttendanceService
	jwt         *jwt.JWTService
}

func startBackend(t *testing.T) backend {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	studentRepo := memory.NewStudentRepository(store)
	var students []student.Student
	for _, s := range []student.Student{
		{Name: "Ayu", RollNo: "01", Class: "10A"},
		{Name: "Budi", RollNo: "02", Class: "10A"},
		{Name: "Citra", RollNo: "03", Class: "10A"},
	} {
		created, err := studentRepo.Create(ctx, s)
		require.NoError(t, err)
		students = append(students, created)
	}

	jwtSvc, err := jwt.NewJWTService("e2e-secret", "1h")
	require.NoError(t, err)

	attendanceSvc := attendanceService.NewAttendanceService(memory.NewAttendanceRepository(store), studentRepo, sse.NewHub())
	router := httpHandler.NewRouter(httpHandler.RouterOptions{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		JWTService: jwtSvc,
	},
		httpHandler.NewStudentHandler(studentService.NewStudentService(studentRepo, memory.NewEnrollmentRepository(store))),
		httpHandler.NewAttendanceHandler(attendanceSvc, jwtSvc),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return backend{url: srv.URL, students: students, attendances: attendanceSvc, jwt: jwtSvc}
}

func TestPipeline_AgainstBackend(t *testing.T) {
	ctx := context.Background()
	b := startBackend(t)

	token, _, err := b.jwt.GenerateAccessToken("teacher-1", jwt.RoleTeacher)
	require.NoError(t, err)
	client := pipeline.NewHTTPClient(b.url, token, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	s := pipeline.NewSession(client, client, pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.SelectDate(date)
	s.SelectClass("10A")
	require.NoError(t, s.LoadRoster(ctx))
	require.Len(t, s.Roster(), 3)

	require.NoError(t, s.Toggle(b.students[1].ID))
	res, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Receipt.BatchID)
	assert.Equal(t, 3, res.Receipt.Recorded)

	sheet, err := spreadsheet.WriteXLSX("Sheet1", []string{"Roll No", "Attendance"}, [][]string{
		{"01", "Present"},
		{"03", "a"},
		{"99", "p"},
	})
	require.NoError(t, err)
	imported, err := s.Import(ctx, bytes.NewReader(sheet), "10A.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, imported.Matched)
	assert.Len(t, imported.Unmatched, 1)

	listed, err := b.attendances.ListAttendance(ctx, attendance.AttendanceFilter{ClassID: "10A", Date: "2024-07-01"})
	require.NoError(t, err)
	require.Len(t, listed.Records, 6)

	present := map[string]map[string]bool{}
	for _, rec := range listed.Records {
		if present[rec.BatchID] == nil {
			present[rec.BatchID] = map[string]bool{}
		}
		present[rec.BatchID][rec.StudentID] = rec.IsPresent
	}
	assert.Equal(t, map[string]bool{
		b.students[0].ID: false,
		b.students[1].ID: true,
		b.students[2].ID: false,
	}, present[res.Receipt.BatchID])
	assert.Equal(t, map[string]bool{
		b.students[0].ID: true,
		b.students[1].ID: false,
		b.students[2].ID: false,
	}, present[imported.Submit.Receipt.BatchID])
}

func TestPipeline_UnauthorizedRosterFetch(t *testing.T) {
	b := startBackend(t)
	client := pipeline.NewHTTPClient(b.url, "", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s := pipeline.NewSession(client, client, pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.SelectClass("10A")

	err := s.LoadRoster(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrRosterFetchFailed)

	var statusErr *pipeline.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 401, statusErr.StatusCode)
	assert.Equal(t, pipeline.StateUnselected, s.State())
}

package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/school-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attendanceFixture struct {
	svc      attendance.AttendanceService
	hub      *sse.Hub
	students []student.Student
}

func newAttendanceFixture(t *testing.T) attendanceFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	studentRepo := memory.NewStudentRepository(store)
	hub := sse.NewHub()

	var students []student.Student
	for _, s := range []student.Student{
		{Name: "Ayu", RollNo: "01", Class: "10A"},
		{Name: "Budi", RollNo: "02", Class: "10A"},
		{Name: "Citra", RollNo: "01", Class: "10B"},
	} {
		created, err := studentRepo.Create(ctx, s)
		require.NoError(t, err)
		students = append(students, created)
	}

	return attendanceFixture{
		svc:      NewAttendanceService(memory.NewAttendanceRepository(store), studentRepo, hub),
		hub:      hub,
		students: students,
	}
}

func TestAttendanceService_AddAttendance_Success(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)

	resp, err := f.svc.AddAttendance(ctx, attendance.AddAttendanceRequest{
		ClassID: "10A",
		Attendance: []attendance.AttendanceItem{
			{StudentID: f.students[0].ID, Date: "2024-07-01", IsPresent: true},
			{StudentID: f.students[1].ID, Date: "2024-07-01", IsPresent: false},
		},
	})

	require.NoError(t, err)
	assert.True(t, validator.IsValidUUID(resp.BatchID))
	assert.Equal(t, "10A", resp.ClassID)
	assert.Equal(t, 2, resp.Recorded)
	assert.Equal(t, 1, resp.Present)
	assert.Equal(t, 1, resp.Absent)

	list, err := f.svc.ListAttendance(ctx, attendance.AttendanceFilter{ClassID: "10A", Date: "2024-07-01"})
	require.NoError(t, err)
	require.Len(t, list.Records, 2)
	assert.Equal(t, f.students[0].ID, list.Records[0].StudentID)
	assert.True(t, list.Records[0].IsPresent)
	assert.Equal(t, "2024-07-01", list.Records[1].Date)
}

func TestAttendanceService_AddAttendance_ResubmitCreatesNewBatch(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)

	req := attendance.AddAttendanceRequest{
		ClassID:    "10A",
		Attendance: []attendance.AttendanceItem{{StudentID: f.students[0].ID, Date: "2024-07-01", IsPresent: true}},
	}
	first, err := f.svc.AddAttendance(ctx, req)
	require.NoError(t, err)
	second, err := f.svc.AddAttendance(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.BatchID, second.BatchID)

	list, err := f.svc.ListAttendance(ctx, attendance.AttendanceFilter{ClassID: "10A", Date: "2024-07-01"})
	require.NoError(t, err)
	assert.Len(t, list.Records, 2)
}

func TestAttendanceService_AddAttendance_StudentOutsideClass(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.svc.AddAttendance(context.Background(), attendance.AddAttendanceRequest{
		ClassID: "10A",
		Attendance: []attendance.AttendanceItem{
			{StudentID: f.students[0].ID, Date: "2024-07-01", IsPresent: true},
			{StudentID: f.students[2].ID, Date: "2024-07-01", IsPresent: true},
		},
	})

	assert.ErrorIs(t, err, attendance.ErrUnknownStudent)
}

func TestAttendanceService_AddAttendance_DuplicateStudent(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.svc.AddAttendance(context.Background(), attendance.AddAttendanceRequest{
		ClassID: "10A",
		Attendance: []attendance.AttendanceItem{
			{StudentID: f.students[0].ID, Date: "2024-07-01", IsPresent: true},
			{StudentID: f.students[0].ID, Date: "2024-07-01", IsPresent: false},
		},
	})

	assert.ErrorIs(t, err, attendance.ErrDuplicateStudent)
}

func TestAttendanceService_AddAttendance_ValidationError(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.svc.AddAttendance(context.Background(), attendance.AddAttendanceRequest{
		ClassID:    " ",
		Attendance: []attendance.AttendanceItem{{StudentID: "", Date: "01/07/2024"}},
	})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	details := verrs.ToMap()
	assert.Contains(t, details, "classId")
	assert.Contains(t, details, "attendance[0].studentId")
	assert.Contains(t, details, "attendance[0].date")
}

func TestAttendanceService_SubscribeReceivesRecordedBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newAttendanceFixture(t)

	events, cleanup := f.svc.Subscribe(ctx, "10A")
	defer cleanup()

	resp, err := f.svc.AddAttendance(ctx, attendance.AddAttendanceRequest{
		ClassID:    "10A",
		Attendance: []attendance.AttendanceItem{{StudentID: f.students[1].ID, Date: "2024-07-02", IsPresent: true}},
	})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, resp.BatchID, ev.BatchID)
		assert.Equal(t, 1, ev.Recorded)
		assert.Equal(t, 1, ev.Present)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recorded event")
	}
}

package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
)

// EventBatchRecorded is the SSE event name for a stored batch
const EventBatchRecorded = "attendance.recorded"

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	student.StudentRepository
	hub *sse.Hub
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	studentRepo student.StudentRepository,
	hub *sse.Hub,
) attendance.AttendanceService {
	if hub == nil {
		hub = sse.NewHub()
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		StudentRepository:    studentRepo,
		hub:                  hub,
	}
}

// AddAttendance implements attendance.AttendanceService.
// Every submission is stored as a new batch; the store keeps history rather
// than overwriting earlier batches for the same date.
func (a *AttendanceServiceImpl) AddAttendance(ctx context.Context, req attendance.AddAttendanceRequest) (attendance.AddAttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AddAttendanceResponse{}, err
	}
	classID := strings.TrimSpace(req.ClassID)

	type key struct {
		studentID string
		date      string
	}
	seen := make(map[key]struct{}, len(req.Attendance))
	ids := make([]string, 0, len(req.Attendance))
	for _, item := range req.Attendance {
		k := key{studentID: item.StudentID, date: item.Date}
		if _, dup := seen[k]; dup {
			return attendance.AddAttendanceResponse{}, fmt.Errorf("%w: %s on %s", attendance.ErrDuplicateStudent, item.StudentID, item.Date)
		}
		seen[k] = struct{}{}
		ids = append(ids, item.StudentID)
	}

	inClass, err := a.StudentRepository.FilterInClass(ctx, classID, ids)
	if err != nil {
		return attendance.AddAttendanceResponse{}, fmt.Errorf("failed to check class roster: %w", err)
	}

	batchID, err := uuid.NewV7()
	if err != nil {
		return attendance.AddAttendanceResponse{}, fmt.Errorf("failed to generate batch id: %w", err)
	}

	batch := attendance.Batch{
		ID:      batchID.String(),
		ClassID: classID,
		Records: make([]attendance.Record, 0, len(req.Attendance)),
	}
	present := 0
	for _, item := range req.Attendance {
		if _, ok := inClass[item.StudentID]; !ok {
			return attendance.AddAttendanceResponse{}, fmt.Errorf("%w: %s", attendance.ErrUnknownStudent, item.StudentID)
		}
		date, _ := validator.IsValidDate(item.Date)
		batch.Records = append(batch.Records, attendance.Record{
			StudentID: item.StudentID,
			Date:      date,
			IsPresent: item.IsPresent,
		})
		if item.IsPresent {
			present++
		}
	}

	stored, err := a.AttendanceRepository.CreateBatch(ctx, batch)
	if err != nil {
		if errors.Is(err, attendance.ErrEmptyBatch) {
			return attendance.AddAttendanceResponse{}, err
		}
		return attendance.AddAttendanceResponse{}, fmt.Errorf("failed to store attendance batch: %w", err)
	}

	resp := attendance.AddAttendanceResponse{
		BatchID:  stored.ID,
		ClassID:  stored.ClassID,
		Recorded: len(stored.Records),
		Present:  present,
		Absent:   len(stored.Records) - present,
	}

	slog.Info("Attendance batch recorded",
		"batch_id", resp.BatchID,
		"class", resp.ClassID,
		"recorded", resp.Recorded,
		"present", resp.Present,
	)

	a.hub.Publish(classID, sse.Event{
		Event: EventBatchRecorded,
		Data: attendance.BatchRecordedEvent{
			BatchID:  resp.BatchID,
			ClassID:  resp.ClassID,
			Recorded: resp.Recorded,
			Present:  resp.Present,
		},
	})

	return resp, nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	classID := strings.TrimSpace(filter.ClassID)
	date, _ := validator.IsValidDate(strings.TrimSpace(filter.Date))

	records, err := a.AttendanceRepository.ListByClassAndDate(ctx, classID, date)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := attendance.ListAttendanceResponse{
		ClassID: classID,
		Date:    validator.FormatDate(date),
		Records: make([]attendance.RecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, attendance.RecordResponse{
			ID:        rec.ID,
			BatchID:   rec.BatchID,
			StudentID: rec.StudentID,
			Date:      validator.FormatDate(rec.Date),
			IsPresent: rec.IsPresent,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return resp, nil
}

// Subscribe implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Subscribe(ctx context.Context, classID string) (<-chan attendance.BatchRecordedEvent, func()) {
	ch, cleanup := a.hub.Subscribe(strings.TrimSpace(classID))

	out := make(chan attendance.BatchRecordedEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				data, ok := event.Data.(attendance.BatchRecordedEvent)
				if !ok {
					continue
				}
				select {
				case out <- data:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// AddAttendance validates and stores a submitted batch
	AddAttendance(ctx context.Context, req AddAttendanceRequest) (AddAttendanceResponse, error)

	// ListAttendance returns stored records for a class and date
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// Subscribe streams batches recorded for a class until cleanup is called
	Subscribe(ctx context.Context, classID string) (<-chan BatchRecordedEvent, func())
}

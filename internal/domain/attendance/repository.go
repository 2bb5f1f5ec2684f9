package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// CreateBatch stores every record of the batch atomically
	CreateBatch(ctx context.Context, batch Batch) (Batch, error)

	// ListByClassAndDate returns records for a class on a date, newest batch first
	ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]Record, error)
}

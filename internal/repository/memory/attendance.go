package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/google/uuid"
)

type attendanceRepository struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepository{store: store}
}

// CreateBatch implements attendance.AttendanceRepository.
func (r *attendanceRepository) CreateBatch(_ context.Context, batch attendance.Batch) (attendance.Batch, error) {
	if len(batch.Records) == 0 {
		return attendance.Batch{}, attendance.ErrEmptyBatch
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	for i := range batch.Records {
		rec := &batch.Records[i]
		rec.ID = uuid.NewString()
		rec.BatchID = batch.ID
		rec.ClassID = batch.ClassID
		rec.CreatedAt = now
		r.store.attendance = append(r.store.attendance, *rec)
	}
	return batch, nil
}

// ListByClassAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByClassAndDate(_ context.Context, classID string, date time.Time) ([]attendance.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	records := []attendance.Record{}
	for _, rec := range r.store.attendance {
		if rec.ClassID == classID && rec.Date.Equal(date) {
			records = append(records, rec)
		}
	}
	// Newest batch first, submission order within a batch
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

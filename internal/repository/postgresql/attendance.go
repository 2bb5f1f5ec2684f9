package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// CreateBatch implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateBatch(ctx context.Context, batch attendance.Batch) (attendance.Batch, error) {
	if len(batch.Records) == 0 {
		return attendance.Batch{}, attendance.ErrEmptyBatch
	}

	query := `
		INSERT INTO attendances (batch_id, class_id, student_id, date, is_present)
		VALUES ($1::uuid, $2, $3::uuid, $4, $5)
		RETURNING id::text, created_at
	`

	err := WithTransaction(ctx, a.db, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, rec := range batch.Records {
			b.Queue(query, batch.ID, batch.ClassID, rec.StudentID, rec.Date, rec.IsPresent)
		}

		br := tx.SendBatch(ctx, b)
		for i := range batch.Records {
			rec := &batch.Records[i]
			if err := br.QueryRow().Scan(&rec.ID, &rec.CreatedAt); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert attendance for student %s: %w", rec.StudentID, err)
			}
			rec.BatchID = batch.ID
			rec.ClassID = batch.ClassID
		}
		return br.Close()
	})
	if err != nil {
		return attendance.Batch{}, err
	}

	return batch, nil
}

// ListByClassAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id::text, batch_id::text, class_id, student_id::text, date, is_present, created_at
		FROM attendances
		WHERE class_id = $1
		  AND date = $2
		ORDER BY created_at DESC, id ASC
	`

	rows, err := q.Query(ctx, query, classID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.ClassID, &rec.StudentID, &rec.Date, &rec.IsPresent, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}

	return records, nil
}

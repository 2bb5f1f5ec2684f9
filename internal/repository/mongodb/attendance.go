package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type attendanceDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	BatchID   string             `bson:"batch_id"`
	ClassID   string             `bson:"class_id"`
	StudentID string             `bson:"student_id"`
	Date      time.Time          `bson:"date"`
	IsPresent bool               `bson:"is_present"`
	CreatedAt time.Time          `bson:"created_at"`
}

type attendanceRepository struct {
	col *mongo.Collection
}

func NewAttendanceRepository(db *database.MongoDB) attendance.AttendanceRepository {
	return &attendanceRepository{col: db.Collection(database.AttendanceCollection)}
}

// CreateBatch implements attendance.AttendanceRepository.
func (r *attendanceRepository) CreateBatch(ctx context.Context, batch attendance.Batch) (attendance.Batch, error) {
	if len(batch.Records) == 0 {
		return attendance.Batch{}, attendance.ErrEmptyBatch
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(batch.Records))
	for i := range batch.Records {
		rec := &batch.Records[i]
		oid := primitive.NewObjectID()
		rec.ID = oid.Hex()
		rec.BatchID = batch.ID
		rec.ClassID = batch.ClassID
		rec.CreatedAt = now
		docs = append(docs, attendanceDocument{
			ID:        oid,
			BatchID:   batch.ID,
			ClassID:   batch.ClassID,
			StudentID: rec.StudentID,
			Date:      rec.Date,
			IsPresent: rec.IsPresent,
			CreatedAt: now,
		})
	}

	if _, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		// Roll back whatever part of the batch made it in
		if _, delErr := r.col.DeleteMany(context.WithoutCancel(ctx), bson.M{"batch_id": batch.ID}); delErr != nil {
			return attendance.Batch{}, fmt.Errorf("failed to insert attendance batch: %w (cleanup: %v)", err, delErr)
		}
		return attendance.Batch{}, fmt.Errorf("failed to insert attendance batch: %w", err)
	}

	return batch, nil
}

// ListByClassAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]attendance.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.col.Find(ctx, bson.M{"class_id": classID, "date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer cursor.Close(ctx)

	records := []attendance.Record{}
	for cursor.Next(ctx) {
		var doc attendanceDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode attendance: %w", err)
		}
		records = append(records, attendance.Record{
			ID:        doc.ID.Hex(),
			BatchID:   doc.BatchID,
			ClassID:   doc.ClassID,
			StudentID: doc.StudentID,
			Date:      doc.Date.UTC(),
			IsPresent: doc.IsPresent,
			CreatedAt: doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}

	return records, nil
}

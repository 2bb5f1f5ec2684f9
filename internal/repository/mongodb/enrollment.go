package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// enrollmentDocument keeps the field names of the existing
// studentEnrolledSubjects collection.
type enrollmentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StudentID primitive.ObjectID `bson:"Student_name"`
	Subjects  []string           `bson:"Subject_name"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type enrollmentRepository struct {
	col *mongo.Collection
}

func NewEnrollmentRepository(db *database.MongoDB) student.EnrollmentRepository {
	return &enrollmentRepository{col: db.Collection(database.EnrollmentsCollection)}
}

// Upsert implements student.EnrollmentRepository.
func (r *enrollmentRepository) Upsert(ctx context.Context, e student.Enrollment) (student.Enrollment, error) {
	sid, err := primitive.ObjectIDFromHex(e.StudentID)
	if err != nil {
		return student.Enrollment{}, student.ErrStudentNotFound
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	update := bson.M{"$set": bson.M{
		"Subject_name": e.Subjects,
		"updated_at":   time.Now().UTC(),
	}}

	var doc enrollmentDocument
	err = r.col.FindOneAndUpdate(ctx, bson.M{"Student_name": sid}, update, opts).Decode(&doc)
	if err != nil {
		return student.Enrollment{}, fmt.Errorf("failed to upsert enrollment: %w", err)
	}

	return student.Enrollment{
		ID:        doc.ID.Hex(),
		StudentID: doc.StudentID.Hex(),
		Subjects:  doc.Subjects,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// GetByStudentID implements student.EnrollmentRepository.
func (r *enrollmentRepository) GetByStudentID(ctx context.Context, studentID string) (student.Enrollment, error) {
	sid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return student.Enrollment{}, student.ErrEnrollmentNotFound
	}

	var doc enrollmentDocument
	if err := r.col.FindOne(ctx, bson.M{"Student_name": sid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return student.Enrollment{}, student.ErrEnrollmentNotFound
		}
		return student.Enrollment{}, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return student.Enrollment{
		ID:        doc.ID.Hex(),
		StudentID: doc.StudentID.Hex(),
		Subjects:  doc.Subjects,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

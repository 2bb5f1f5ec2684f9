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

type studentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	RollNo    string             `bson:"roll_no"`
	Class     string             `bson:"class"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d studentDocument) toEntity() student.Student {
	return student.Student{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		RollNo:    d.RollNo,
		Class:     d.Class,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type studentRepository struct {
	col *mongo.Collection
}

func NewStudentRepository(db *database.MongoDB) student.StudentRepository {
	return &studentRepository{col: db.Collection(database.StudentsCollection)}
}

// ListByClass implements student.StudentRepository.
func (r *studentRepository) ListByClass(ctx context.Context, class string) ([]student.Student, error) {
	// numeric collation puts roll "2" before "10"
	opts := options.Find().
		SetSort(bson.D{{Key: "roll_no", Value: 1}, {Key: "_id", Value: 1}}).
		SetCollation(&options.Collation{Locale: "en", NumericOrdering: true})

	cursor, err := r.col.Find(ctx, bson.M{"class": class}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer cursor.Close(ctx)

	students := []student.Student{}
	for cursor.Next(ctx) {
		var doc studentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode student: %w", err)
		}
		students = append(students, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	return students, nil
}

// GetByID implements student.StudentRepository.
func (r *studentRepository) GetByID(ctx context.Context, id string) (student.Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return student.Student{}, student.ErrStudentNotFound
	}

	var doc studentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return student.Student{}, student.ErrStudentNotFound
		}
		return student.Student{}, fmt.Errorf("failed to get student: %w", err)
	}

	return doc.toEntity(), nil
}

// Create implements student.StudentRepository.
func (r *studentRepository) Create(ctx context.Context, s student.Student) (student.Student, error) {
	now := time.Now().UTC()
	doc := studentDocument{
		ID:        primitive.NewObjectID(),
		Name:      s.Name,
		RollNo:    s.RollNo,
		Class:     s.Class,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, student.ErrRollNoExists
		}
		return student.Student{}, fmt.Errorf("failed to create student: %w", err)
	}

	return doc.toEntity(), nil
}

// FilterInClass implements student.StudentRepository.
func (r *studentRepository) FilterInClass(ctx context.Context, class string, ids []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(ids))

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		// Ids that are not ObjectIDs cannot belong to any class
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return found, nil
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.col.Find(ctx, bson.M{"class": class, "_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to filter students: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode student id: %w", err)
		}
		found[doc.ID.Hex()] = struct{}{}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate student ids: %w", err)
	}

	return found, nil
}

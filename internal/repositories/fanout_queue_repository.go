package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/diwanhq/murasalat/backend/internal/engine"
)

// mongoFanoutQueue stores failed notification deliveries in MongoDB until
// the retry worker gets them in. Queue documents are operational state, not
// domain data, which is why they live outside the relational store.
type mongoFanoutQueue struct {
	collection *mongo.Collection
}

type fanoutJobDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	RecipientUserID string             `bson:"recipient_user_id"`
	DocumentID      string             `bson:"document_id"`
	DepartmentID    string             `bson:"department_id"`
	Message         string             `bson:"message"`
	MessageAr       string             `bson:"message_ar"`
	Attempts        int                `bson:"attempts"`
	LastError       string             `bson:"last_error"`
	CreatedAt       time.Time          `bson:"created_at"`
}

// NewMongoFanoutQueue creates a retry queue backed by the given database.
func NewMongoFanoutQueue(db *mongo.Database) engine.RetryQueue {
	return &mongoFanoutQueue{collection: db.Collection("fanout_retry")}
}

func (q *mongoFanoutQueue) Enqueue(ctx context.Context, job engine.FanoutJob) error {
	doc := fanoutJobDoc{
		RecipientUserID: job.RecipientUserID,
		DocumentID:      job.DocumentID,
		DepartmentID:    job.DepartmentID,
		Message:         job.Message,
		MessageAr:       job.MessageAr,
		Attempts:        job.Attempts,
		LastError:       job.LastError,
		CreatedAt:       job.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	_, err := q.collection.InsertOne(ctx, doc)
	return err
}

func (q *mongoFanoutQueue) Pending(ctx context.Context, limit int) ([]engine.FanoutJob, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := q.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []fanoutJobDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	jobs := make([]engine.FanoutJob, len(docs))
	for i, d := range docs {
		jobs[i] = engine.FanoutJob{
			ID:              d.ID.Hex(),
			RecipientUserID: d.RecipientUserID,
			DocumentID:      d.DocumentID,
			DepartmentID:    d.DepartmentID,
			Message:         d.Message,
			MessageAr:       d.MessageAr,
			Attempts:        d.Attempts,
			LastError:       d.LastError,
			CreatedAt:       d.CreatedAt,
		}
	}
	return jobs, nil
}

func (q *mongoFanoutQueue) Remove(ctx context.Context, jobID string) error {
	objID, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return err
	}
	_, err = q.collection.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}

func (q *mongoFanoutQueue) Reschedule(ctx context.Context, jobID string, lastError string) error {
	objID, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return err
	}
	_, err = q.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"last_error": lastError},
	})
	return err
}

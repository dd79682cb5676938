package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/synapaxon/question-bank/internal/db"
	"github.com/synapaxon/question-bank/internal/question"
)

// QuestionRepository wraps the questions collection.
type QuestionRepository struct {
	coll *mongo.Collection
}

// NewQuestionRepository wraps the questions collection.
func NewQuestionRepository(database *mongo.Database) *QuestionRepository {
	return &QuestionRepository{coll: database.Collection(db.QuestionsCollection)}
}

// guardCorrectAnswer re-checks the index invariant at the persistence edge so
// a bad write can never land even if a caller skips validation.
func guardCorrectAnswer(q *question.Question) error {
	if q.CorrectAnswer == nil {
		if len(q.Options) > 0 {
			return fmt.Errorf("correct answer required when options are present")
		}
		return nil
	}
	if *q.CorrectAnswer < 0 || *q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("correct answer index is out of range")
	}
	return nil
}

// Insert stores a new question and returns it with its assigned id.
func (r *QuestionRepository) Insert(ctx context.Context, q *question.Question) (*question.Question, error) {
	if err := guardCorrectAnswer(q); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, q)
	if err != nil {
		return nil, err
	}
	q.ID = res.InsertedID.(primitive.ObjectID)
	return q, nil
}

// FindByID fetches a single question.
func (r *QuestionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*question.Question, error) {
	var q question.Question
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, question.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Find returns questions matching the given filter, newest first.
func (r *QuestionRepository) Find(ctx context.Context, filter bson.M) ([]question.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	questions := []question.Question{}
	if err := cur.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Replace overwrites a stored question, preserving its creation metadata.
func (r *QuestionRepository) Replace(ctx context.Context, q *question.Question) (*question.Question, error) {
	if err := guardCorrectAnswer(q); err != nil {
		return nil, err
	}
	q.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": q.ID}, q)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, question.ErrNotFound
	}
	return q, nil
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return question.ErrNotFound
	}
	return nil
}

// DistinctTags returns every tag used across the collection.
func (r *QuestionRepository) DistinctTags(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "tags", bson.M{})
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags, nil
}

// CountApproved counts questions visible in listings.
func (r *QuestionRepository) CountApproved(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"approved": true})
}

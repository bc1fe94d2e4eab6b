package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lenslabs/paperlens/internal/model"
)

// JobRepository persists job status, result and error keyed by job id.
// Transitions are written field-by-field with $set rather than as one
// document swap, so a poll racing a transition may observe a fresh status
// next to a not-yet-written result field. Polling again resolves it.
type JobRepository struct {
	collection *mongo.Collection
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *MongoDB) *JobRepository {
	return &JobRepository{
		collection: db.GetCollection(CollectionJobs),
	}
}

// Create inserts a new job record
func (r *JobRepository) Create(ctx context.Context, job *model.Job) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctxTimeout, job)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// SetRunning transitions a job to RUNNING
func (r *JobRepository) SetRunning(ctx context.Context, jobID string) error {
	return r.setFields(ctx, jobID, bson.M{
		"status": model.StatusRunning,
	})
}

// SetDone transitions a job to DONE with its serialized result
func (r *JobRepository) SetDone(ctx context.Context, jobID string, result json.RawMessage) error {
	return r.setFields(ctx, jobID, bson.M{
		"status": model.StatusDone,
		"result": result,
	})
}

// SetError transitions a job to ERROR with the failure message
func (r *JobRepository) SetError(ctx context.Context, jobID string, msg string) error {
	return r.setFields(ctx, jobID, bson.M{
		"status": model.StatusError,
		"error":  msg,
	})
}

// Get retrieves a job by id
func (r *JobRepository) Get(ctx context.Context, jobID string) (*model.Job, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var job model.Job
	err := r.collection.FindOne(ctxTimeout, bson.M{"_id": jobID}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// DeleteFinishedBefore removes DONE/ERROR jobs last updated before the cutoff
func (r *JobRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"status":     bson.M{"$in": []model.JobStatus{model.StatusDone, model.StatusError}},
		"updated_at": bson.M{"$lt": cutoff},
	}

	result, err := r.collection.DeleteMany(ctxTimeout, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete finished jobs: %w", err)
	}

	return result.DeletedCount, nil
}

func (r *JobRepository) setFields(ctx context.Context, jobID string, fields bson.M) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()

	result, err := r.collection.UpdateOne(ctxTimeout, bson.M{"_id": jobID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if result.MatchedCount == 0 {
		return model.ErrJobNotFound
	}

	return nil
}

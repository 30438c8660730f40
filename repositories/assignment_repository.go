package repository

import (
	"context"
	"errors"
	"time"

	"chainkpi/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AssignmentRepository interface {
	Insert(ctx context.Context, assignment *models.ChainKpiAssignment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpiAssignment, error)
	GetByKey(ctx context.Context, chainKpiID primitive.ObjectID, weekIndex int, stepID string) (*models.ChainKpiAssignment, error)
	ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.ChainKpiAssignment, error)
	Replace(ctx context.Context, id primitive.ObjectID, assignment *models.ChainKpiAssignment) error
	// MarkAccepted / MarkHandedOver are atomic conditional updates that
	// only match the pre-ratchet state; they report whether a flip
	// happened so callers can treat an already-set flag as a no-op.
	MarkAccepted(ctx context.Context, id primitive.ObjectID, actor string, at time.Time) (bool, error)
	MarkHandedOver(ctx context.Context, id primitive.ObjectID, actor string, at time.Time) (bool, error)
	SetDayResults(ctx context.Context, id primitive.ObjectID, date string, results []*models.DayResultEntry, updatedBy string) error
	DeleteByKPI(ctx context.Context, chainKpiID primitive.ObjectID) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type assignmentRepository struct {
	collection *mongo.Collection
}

func NewAssignmentRepository(db *mongo.Database) AssignmentRepository {
	return &assignmentRepository{
		collection: db.Collection("chain_kpi_assignments"),
	}
}

func (r *assignmentRepository) Insert(ctx context.Context, assignment *models.ChainKpiAssignment) error {
	assignment.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, assignment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewDomainError(models.ErrConcurrentModification,
				"assignment for week %d step %s already exists", assignment.WeekIndex, assignment.StepID)
		}
		return models.NewStorageError("assignments.insert", err)
	}
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpiAssignment, error) {
	var assignment models.ChainKpiAssignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewDomainError(models.ErrNotFound, "assignment %s not found", id.Hex())
		}
		return nil, models.NewStorageError("assignments.find", err)
	}
	return &assignment, nil
}

func (r *assignmentRepository) GetByKey(ctx context.Context, chainKpiID primitive.ObjectID, weekIndex int, stepID string) (*models.ChainKpiAssignment, error) {
	filter := bson.M{
		"chain_kpi_id": chainKpiID,
		"week_index":   weekIndex,
		"step_id":      stepID,
	}

	var assignment models.ChainKpiAssignment
	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewDomainError(models.ErrNotFound,
				"no assignment for KPI %s week %d step %s", chainKpiID.Hex(), weekIndex, stepID)
		}
		return nil, models.NewStorageError("assignments.find", err)
	}
	return &assignment, nil
}

func (r *assignmentRepository) ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.ChainKpiAssignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "week_index", Value: 1}, {Key: "step_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"chain_kpi_id": chainKpiID}, opts)
	if err != nil {
		return nil, models.NewStorageError("assignments.list", err)
	}
	defer cursor.Close(ctx)

	var assignments []models.ChainKpiAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, models.NewStorageError("assignments.list", err)
	}
	return assignments, nil
}

func (r *assignmentRepository) Replace(ctx context.Context, id primitive.ObjectID, assignment *models.ChainKpiAssignment) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": assignment})
	if err != nil {
		return models.NewStorageError("assignments.replace", err)
	}
	if result.MatchedCount == 0 {
		return models.NewDomainError(models.ErrNotFound, "assignment %s not found", id.Hex())
	}
	return nil
}

func (r *assignmentRepository) MarkAccepted(ctx context.Context, id primitive.ObjectID, actor string, at time.Time) (bool, error) {
	filter := bson.M{"_id": id, "accepted": false}
	update := bson.M{"$set": bson.M{
		"accepted":            true,
		"accepted_by":         actor,
		"accepted_at":         at,
		"metadata.updated_by": actor,
		"metadata.updated_at": at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, models.NewStorageError("assignments.accept", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *assignmentRepository) MarkHandedOver(ctx context.Context, id primitive.ObjectID, actor string, at time.Time) (bool, error) {
	filter := bson.M{"_id": id, "handed_over": false}
	update := bson.M{"$set": bson.M{
		"handed_over":         true,
		"handed_over_by":      actor,
		"handed_over_at":      at,
		"metadata.updated_by": actor,
		"metadata.updated_at": at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, models.NewStorageError("assignments.hand_over", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *assignmentRepository) SetDayResults(ctx context.Context, id primitive.ObjectID, date string, results []*models.DayResultEntry, updatedBy string) error {
	update := bson.M{"$set": bson.M{
		"day_results." + date: results,
		"metadata.updated_by": updatedBy,
		"metadata.updated_at": time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return models.NewStorageError("assignments.set_day_results", err)
	}
	if result.MatchedCount == 0 {
		return models.NewDomainError(models.ErrNotFound, "assignment %s not found", id.Hex())
	}
	return nil
}

func (r *assignmentRepository) DeleteByKPI(ctx context.Context, chainKpiID primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"chain_kpi_id": chainKpiID}); err != nil {
		return models.NewStorageError("assignments.delete_by_kpi", err)
	}
	return nil
}

func (r *assignmentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTransaction(ctx, r.collection.Database().Client(), fn)
}

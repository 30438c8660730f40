package repository

import (
	"context"

	"chainkpi/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CompletionRepository interface {
	// DeleteByKey removes the row for the completion key if present and
	// reports whether one existed.
	DeleteByKey(ctx context.Context, chainKpiID primitive.ObjectID, completionType models.CompletionType, weekIndex int, dateISO string) (bool, error)
	Insert(ctx context.Context, completion *models.KpiCompletion) error
	ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.KpiCompletion, error)
	DeleteByKPI(ctx context.Context, chainKpiID primitive.ObjectID) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type completionRepository struct {
	collection *mongo.Collection
}

func NewCompletionRepository(db *mongo.Database) CompletionRepository {
	return &completionRepository{
		collection: db.Collection("kpi_completions"),
	}
}

func completionKeyFilter(chainKpiID primitive.ObjectID, completionType models.CompletionType, weekIndex int, dateISO string) bson.M {
	filter := bson.M{
		"chain_kpi_id":    chainKpiID,
		"completion_type": completionType,
	}
	if completionType == models.CompletionTypeWeek {
		filter["week_index"] = weekIndex
	} else {
		filter["date_iso"] = dateISO
	}
	return filter
}

func (r *completionRepository) DeleteByKey(ctx context.Context, chainKpiID primitive.ObjectID, completionType models.CompletionType, weekIndex int, dateISO string) (bool, error) {
	filter := completionKeyFilter(chainKpiID, completionType, weekIndex, dateISO)

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, models.NewStorageError("completions.delete", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *completionRepository) Insert(ctx context.Context, completion *models.KpiCompletion) error {
	completion.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, completion); err != nil {
		// The unique index on the key triple is the race backstop: a
		// concurrent toggler that inserted first surfaces here.
		if mongo.IsDuplicateKeyError(err) {
			return models.NewDomainError(models.ErrConcurrentModification,
				"completion for KPI %s was toggled concurrently", completion.ChainKpiID.Hex())
		}
		return models.NewStorageError("completions.insert", err)
	}
	return nil
}

func (r *completionRepository) ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.KpiCompletion, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "completion_type", Value: 1},
		{Key: "week_index", Value: 1},
		{Key: "date_iso", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{"chain_kpi_id": chainKpiID}, opts)
	if err != nil {
		return nil, models.NewStorageError("completions.list", err)
	}
	defer cursor.Close(ctx)

	var completions []models.KpiCompletion
	if err = cursor.All(ctx, &completions); err != nil {
		return nil, models.NewStorageError("completions.list", err)
	}
	return completions, nil
}

func (r *completionRepository) DeleteByKPI(ctx context.Context, chainKpiID primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"chain_kpi_id": chainKpiID}); err != nil {
		return models.NewStorageError("completions.delete_by_kpi", err)
	}
	return nil
}

func (r *completionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTransaction(ctx, r.collection.Database().Client(), fn)
}

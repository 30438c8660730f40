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

type ChainKPIRepository interface {
	Create(ctx context.Context, kpi *models.ChainKpi) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpi, error)
	ListByChain(ctx context.Context, chainID primitive.ObjectID) ([]models.ChainKpi, error)
	Update(ctx context.Context, id primitive.ObjectID, kpi *models.ChainKpi) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	GetChainKpiStats(ctx context.Context, chainID primitive.ObjectID) ([]bson.M, error)
	// WithTransaction runs fn inside a Mongo transaction; fn's error is
	// returned unwrapped so domain errors survive the round trip.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type chainKPIRepository struct {
	collection *mongo.Collection
}

func NewChainKPIRepository(db *mongo.Database) ChainKPIRepository {
	return &chainKPIRepository{
		collection: db.Collection("chain_kpis"),
	}
}

func (r *chainKPIRepository) Create(ctx context.Context, kpi *models.ChainKpi) error {
	kpi.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, kpi); err != nil {
		return models.NewStorageError("chain_kpis.insert", err)
	}
	return nil
}

func (r *chainKPIRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpi, error) {
	var kpi models.ChainKpi
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&kpi)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewDomainError(models.ErrNotFound, "chain KPI %s not found", id.Hex())
		}
		return nil, models.NewStorageError("chain_kpis.find", err)
	}
	return &kpi, nil
}

func (r *chainKPIRepository) ListByChain(ctx context.Context, chainID primitive.ObjectID) ([]models.ChainKpi, error) {
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"chain_id": chainID}, opts)
	if err != nil {
		return nil, models.NewStorageError("chain_kpis.list", err)
	}
	defer cursor.Close(ctx)

	var kpis []models.ChainKpi
	if err = cursor.All(ctx, &kpis); err != nil {
		return nil, models.NewStorageError("chain_kpis.list", err)
	}
	return kpis, nil
}

func (r *chainKPIRepository) Update(ctx context.Context, id primitive.ObjectID, kpi *models.ChainKpi) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": kpi})
	if err != nil {
		return models.NewStorageError("chain_kpis.update", err)
	}
	if result.MatchedCount == 0 {
		return models.NewDomainError(models.ErrNotFound, "chain KPI %s not found", id.Hex())
	}
	return nil
}

func (r *chainKPIRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewStorageError("chain_kpis.delete", err)
	}
	if result.DeletedCount == 0 {
		return models.NewDomainError(models.ErrNotFound, "chain KPI %s not found", id.Hex())
	}
	return nil
}

// Per-KPI planning stats for one chain: assignment acceptance/hand-over
// counts plus completion counts, joined in a single pipeline.
func (r *chainKPIRepository) GetChainKpiStats(ctx context.Context, chainID primitive.ObjectID) ([]bson.M, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"chain_id": chainID}}},

		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "chain_kpi_assignments",
			"localField":   "_id",
			"foreignField": "chain_kpi_id",
			"as":           "assignments",
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "kpi_completions",
			"localField":   "_id",
			"foreignField": "chain_kpi_id",
			"as":           "completions",
		}}},

		bson.D{{Key: "$addFields", Value: bson.M{
			"assignment_count": bson.M{"$size": "$assignments"},
			"accepted_count": bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$assignments",
				"as":    "a",
				"cond":  bson.M{"$eq": []interface{}{"$$a.accepted", true}},
			}}},
			"handed_over_count": bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$assignments",
				"as":    "a",
				"cond":  bson.M{"$eq": []interface{}{"$$a.handed_over", true}},
			}}},
			"completed_weeks": bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$completions",
				"as":    "c",
				"cond":  bson.M{"$eq": []interface{}{"$$c.completion_type", "week"}},
			}}},
			"completed_days": bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$completions",
				"as":    "c",
				"cond":  bson.M{"$eq": []interface{}{"$$c.completion_type", "day"}},
			}}},
		}}},

		bson.D{{Key: "$project", Value: bson.M{
			"target_value":      1,
			"unit_label":        1,
			"year":              1,
			"month":             1,
			"assignment_count":  1,
			"accepted_count":    1,
			"handed_over_count": 1,
			"completed_weeks":   1,
			"completed_days":    1,
		}}},

		bson.D{{Key: "$sort", Value: bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.NewStorageError("chain_kpis.stats", err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err = cursor.All(ctx, &results); err != nil {
		return nil, models.NewStorageError("chain_kpis.stats", err)
	}
	return results, nil
}

func (r *chainKPIRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTransaction(ctx, r.collection.Database().Client(), fn)
}

// runInTransaction is shared by all repositories: start a session, run
// fn in a transaction, and hand fn's own error back untouched.
func runInTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	session, err := client.StartSession()
	if err != nil {
		return models.NewStorageError("start session", err)
	}
	defer session.EndSession(ctx)

	txnCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = session.WithTransaction(txnCtx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

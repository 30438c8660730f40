package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func CreateKPIIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// LISTING: chain KPIs per chain, ordered by period
	kpiIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "chain_id", Value: 1},
				{Key: "year", Value: 1},
				{Key: "month", Value: 1},
			},
			Options: options.Index().SetName("idx_chain_id_period"),
		},
	}
	if _, err := db.Collection("chain_kpis").Indexes().CreateMany(ctx, kpiIndexes); err != nil {
		return fmt.Errorf("failed to create chain_kpis indexes: %v", err)
	}

	// ASSIGNMENTS: one slice per (chain_kpi_id, week_index, step_id)
	// Used by: AssignWeek create-or-replace, ListByKPI
	assignmentIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "chain_kpi_id", Value: 1},
				{Key: "week_index", Value: 1},
				{Key: "step_id", Value: 1},
			},
			Options: options.Index().SetName("idx_assignment_key").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "assigned_to", Value: 1},
			},
			Options: options.Index().SetName("idx_assigned_to"),
		},
	}
	if _, err := db.Collection("chain_kpi_assignments").Indexes().CreateMany(ctx, assignmentIndexes); err != nil {
		return fmt.Errorf("failed to create assignment indexes: %v", err)
	}

	// COMPLETIONS: at most one row per completion key; the unique index
	// is the backstop against double-inserts from concurrent toggles
	completionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "chain_kpi_id", Value: 1},
				{Key: "completion_type", Value: 1},
				{Key: "week_index", Value: 1},
				{Key: "date_iso", Value: 1},
			},
			Options: options.Index().SetName("idx_completion_key").SetUnique(true),
		},
	}
	if _, err := db.Collection("kpi_completions").Indexes().CreateMany(ctx, completionIndexes); err != nil {
		return fmt.Errorf("failed to create completion indexes: %v", err)
	}

	// NOTIFICATIONS: audience feed, newest first
	notificationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "audience", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_audience_created_at"),
		},
		{
			Keys: bson.D{
				{Key: "audience", Value: 1},
				{Key: "read", Value: 1},
			},
			Options: options.Index().SetName("idx_audience_read"),
		},
	}
	if _, err := db.Collection("notifications").Indexes().CreateMany(ctx, notificationIndexes); err != nil {
		return fmt.Errorf("failed to create notification indexes: %v", err)
	}

	fmt.Println("KPI indexes created successfully")
	return nil
}
